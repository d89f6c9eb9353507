package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pthm/vantage/internal/debug"
	"github.com/pthm/vantage/pkg/datasource"
)

var (
	queryFlags tableFlags
	queryLimit int64
)

var queryCmd = &cobra.Command{
	Use:   "query <table>",
	Short: "Fetch rows of a table",
	Long:  `Run the SELECT of a table, narrowed by --where and --ref, and print the rows as YAML.`,
	Example: `  # First ten clients
  vantage query client --limit 10

  # Orders of one client
  vantage query client --where id=1 --ref orders`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(cfg.Model)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		ds, closeDB, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeDB()

		t, err := buildTable(reg, args[0], ds, queryFlags)
		if err != nil {
			return err
		}
		q, err := t.SelectQuery()
		if err != nil {
			return err
		}
		pushLimit := queryLimit > 0 && castsPagination(cfg.Database.Driver)
		if pushLimit {
			q.WithLimit(queryLimit)
		}
		debug.Debug("running query", "table", args[0], "sql", q.Preview())

		rows, err := ds.FetchRows(ctx, q)
		if err != nil {
			return err
		}
		if queryLimit > 0 && !pushLimit && int64(len(rows)) > queryLimit {
			rows = rows[:queryLimit]
		}
		return printRows(cmd, rows)
	},
}

func init() {
	f := queryCmd.Flags()
	f.StringArrayVarP(&queryFlags.where, "where", "w", nil, "condition column=value (repeatable)")
	f.StringArrayVarP(&queryFlags.refs, "ref", "r", nil, "follow a relation (repeatable)")
	f.Int64VarP(&queryLimit, "limit", "l", 0, "maximum number of rows (0 for all)")
}

func printRows(cmd *cobra.Command, rows []datasource.Row) error {
	w := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(w, color.New(color.FgYellow).Sprint("(no rows)"))
		return nil
	}
	out, err := yaml.Marshal(rows)
	if err != nil {
		return err
	}
	fmt.Fprint(w, string(out))
	fmt.Fprintln(w, color.New(color.Faint).Sprintf("(%d rows)", len(rows)))
	return nil
}
