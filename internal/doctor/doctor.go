// Package doctor provides health checks for a vantage model and database.
//
// The doctor command validates that the model file loads, that every table
// and relation it declares builds into renderable statements, and, when a
// database is configured, that the tables and columns exist.
//
// Example usage:
//
//	d := doctor.New(fs, "vantage.model.yaml", ds)
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/pthm/vantage/pkg/datasource"
	"github.com/pthm/vantage/pkg/expr"
	"github.com/pthm/vantage/pkg/model"
	"github.com/pthm/vantage/pkg/table"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	// Category groups related checks (e.g., "model", "relations", "database").
	Category string

	// Name is a short identifier for the check.
	Name string

	// Status is the check outcome.
	Status Status

	// Message is a human-readable description of the result.
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	// Summary counts.
	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report to the given writer.
func (r *Report) Print(w io.Writer, verbose bool) {
	// Group checks by category
	categories := make(map[string][]CheckResult)
	var categoryOrder []string
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", cat)
		for _, check := range categories[cat] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", check.Status.Symbol(), check.Message)
			if verbose && check.Details != "" {
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Doctor checks a model file and, optionally, the database behind it.
type Doctor struct {
	fs        afero.Fs
	modelPath string
	ds        datasource.DataSource

	// Populated during Run
	registry *model.Registry
}

// New creates a Doctor. ds may be nil to skip database checks.
func New(fs afero.Fs, modelPath string, ds datasource.DataSource) *Doctor {
	return &Doctor{fs: fs, modelPath: modelPath, ds: ds}
}

// Run executes all health checks and returns a report. Check failures are
// recorded in the report; the error is reserved for the context ending.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if !d.checkModel(report) {
		return report, nil
	}
	d.checkTables(report)
	d.checkRelations(report)
	if err := d.checkDatabase(ctx, report); err != nil {
		return nil, fmt.Errorf("checking database: %w", err)
	}

	return report, nil
}

// checkModel loads the model file. Later checks need it to pass.
func (d *Doctor) checkModel(report *Report) bool {
	reg, err := model.Load(d.fs, d.modelPath)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: "Model",
			Name:     "load",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Cannot load %s", d.modelPath),
			Details:  err.Error(),
			FixHint:  "Set model in vantage.yaml or pass --model",
		})
		return false
	}
	d.registry = reg

	names := reg.Names()
	check := CheckResult{
		Category: "Model",
		Name:     "load",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Loaded %s (%d tables)", d.modelPath, len(names)),
		Details:  strings.Join(names, ", "),
	}
	if len(names) == 0 {
		check.Status = StatusWarn
		check.FixHint = "Declare at least one table under tables:"
	}
	report.AddCheck(check)
	return true
}

// checkTables builds every table and renders its SELECT.
func (d *Doctor) checkTables(report *Report) {
	for _, name := range d.registry.Names() {
		check := CheckResult{Category: "Tables", Name: name}
		e, err := d.renderSelect(name)
		if err != nil {
			check.Status = StatusFail
			check.Message = fmt.Sprintf("%s does not build", name)
			check.Details = err.Error()
		} else {
			check.Status = StatusPass
			check.Message = fmt.Sprintf("%s renders", name)
			check.Details = e.Preview()
		}
		report.AddCheck(check)
	}
}

func (d *Doctor) renderSelect(name string) (expr.Expression, error) {
	t, err := d.registry.Table(name, datasource.NewMock())
	if err != nil {
		return expr.Expression{}, err
	}
	q, err := t.SelectQuery()
	if err != nil {
		return expr.Expression{}, err
	}
	return q.Build()
}

// checkRelations traverses every relation both ways: as a related set and
// as a linked set.
func (d *Doctor) checkRelations(report *Report) {
	for _, name := range d.registry.Names() {
		def, _ := d.registry.Definition(name)
		for _, rel := range append(append([]model.RelationDef(nil), def.HasMany...), def.HasOne...) {
			check := CheckResult{
				Category: "Relations",
				Name:     name + "." + rel.Name,
				Status:   StatusPass,
				Message:  fmt.Sprintf("%s.%s -> %s", name, rel.Name, rel.Table),
			}
			if err := d.traverse(name, rel.Name); err != nil {
				check.Status = StatusFail
				check.Details = err.Error()
				check.FixHint = fmt.Sprintf("Check that foreign_key %q and the id columns are declared", rel.ForeignKey)
			}
			report.AddCheck(check)
		}
	}
}

func (d *Doctor) traverse(name, relation string) error {
	owner, err := d.registry.Table(name, datasource.NewMock())
	if err != nil {
		return err
	}
	for _, follow := range []func(string) (*table.Table, error){owner.Ref, owner.LinkedRef} {
		target, err := follow(relation)
		if err != nil {
			return err
		}
		q, err := target.SelectQuery()
		if err != nil {
			return err
		}
		if _, err := q.Build(); err != nil {
			return err
		}
	}
	return nil
}

// checkDatabase runs each table's SELECT with an always-false condition, so
// missing tables or columns surface without reading rows.
func (d *Doctor) checkDatabase(ctx context.Context, report *Report) error {
	if d.ds == nil {
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "connection",
			Status:   StatusWarn,
			Message:  "No database configured, skipping schema checks",
			FixHint:  "Set database.url in vantage.yaml or VANTAGE_DATABASE_URL",
		})
		return nil
	}

	for _, name := range d.registry.Names() {
		if err := ctx.Err(); err != nil {
			return err
		}
		check := CheckResult{Category: "Database", Name: name}
		if err := d.checkSchema(ctx, name); err != nil {
			check.Status = StatusFail
			check.Message = fmt.Sprintf("%s does not match the database", name)
			check.Details = err.Error()
			var execErr *datasource.ExecError
			if errors.As(err, &execErr) && execErr.Statement != "" {
				check.Details += "\n" + execErr.Statement
			}
			check.FixHint = "Compare the model columns with the table definition"
		} else {
			check.Status = StatusPass
			check.Message = fmt.Sprintf("%s exists with all model columns", name)
		}
		report.AddCheck(check)
	}
	return nil
}

func (d *Doctor) checkSchema(ctx context.Context, name string) error {
	t, err := d.registry.Table(name, d.ds)
	if err != nil {
		return err
	}
	q, err := t.SelectQuery()
	if err != nil {
		return err
	}
	_, err = d.ds.FetchRows(ctx, q.WithCondition(expr.New("1 = 0")))
	return err
}
