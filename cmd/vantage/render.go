package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pthm/vantage/internal/cli"
	"github.com/pthm/vantage/pkg/datasource"
	"github.com/pthm/vantage/pkg/expr"
	"github.com/pthm/vantage/pkg/query"
	"github.com/pthm/vantage/pkg/table"
)

var (
	renderKind        string
	renderFlags       tableFlags
	renderSet         []string
	renderPreview     bool
	renderPlaceholder string
)

var renderCmd = &cobra.Command{
	Use:   "render <table>",
	Short: "Print the SQL for a table operation",
	Long: `Render the statement a table operation produces, without touching a database.

Conditions given with --where apply to the named table; each --ref then
follows a relation from the current set.`,
	Example: `  # Select all active users
  vantage render users --where is_active=true

  # Orders of one user, with parameters inlined
  vantage render users --where id=7 --ref orders --preview

  # Insert with MySQL placeholders
  vantage render users --kind insert --set name=John --placeholder question`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cfg.Model)
		if err != nil {
			return err
		}
		t, err := buildTable(reg, args[0], datasource.NewMock(), renderFlags)
		if err != nil {
			return err
		}
		q, err := statementFor(t, renderKind, renderSet)
		if err != nil {
			return err
		}
		e, err := q.Build()
		if err != nil {
			return err
		}

		style, err := cfg.Placeholder()
		if renderPlaceholder != "" {
			style, err = expr.ParsePlaceholder(renderPlaceholder)
		}
		if err != nil {
			return cli.ConfigError("render placeholder", err)
		}
		printStatement(cmd.OutOrStdout(), e, style, resolveBool(renderPreview, cfg.Render.Preview))
		return nil
	},
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderKind, "kind", "k", "select", "statement kind: select, count, insert, update or delete")
	f.StringArrayVarP(&renderFlags.where, "where", "w", nil, "condition column=value (repeatable)")
	f.StringArrayVarP(&renderFlags.refs, "ref", "r", nil, "follow a relation (repeatable)")
	f.StringArrayVarP(&renderSet, "set", "s", nil, "value column=value for insert and update (repeatable)")
	f.BoolVarP(&renderPreview, "preview", "p", false, "inline parameters instead of placeholders")
	f.StringVar(&renderPlaceholder, "placeholder", "", "placeholder style: dollar, question or question-numbered")
}

// statementFor builds the query of the given kind over t.
func statementFor(t *table.Table, kind string, set []string) (*query.Query, error) {
	switch kind {
	case "select":
		return t.SelectQuery()
	case "count":
		c, err := t.Count()
		if err != nil {
			return nil, err
		}
		return c.Query, nil
	case "insert", "update":
		values, err := assignmentMap(set)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("%s needs at least one --set", kind)
		}
		if kind == "insert" {
			return t.InsertQuery(values)
		}
		return t.UpdateQuery(values)
	case "delete":
		return t.DeleteQuery()
	}
	return nil, fmt.Errorf("unknown statement kind %q", kind)
}

func printStatement(w io.Writer, e expr.Expression, style expr.Placeholder, preview bool) {
	sql := color.New(color.FgCyan, color.Bold)
	label := color.New(color.Faint)

	if preview {
		fmt.Fprintln(w, sql.Sprint(e.Preview()))
		return
	}
	fmt.Fprintln(w, sql.Sprint(e.FinalWith(style)))
	for i, p := range e.Params() {
		fmt.Fprintf(w, "%s %#v\n", label.Sprint(style.Marker(i+1)), p)
	}
}
