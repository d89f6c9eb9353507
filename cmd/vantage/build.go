package main

import (
	"fmt"
	"strings"

	"github.com/pthm/vantage/internal/cli"
	"github.com/pthm/vantage/pkg/datasource"
	"github.com/pthm/vantage/pkg/model"
	"github.com/pthm/vantage/pkg/table"
)

// tableFlags select and narrow a table from the model.
type tableFlags struct {
	where []string
	refs  []string
}

func loadRegistry(path string) (*model.Registry, error) {
	reg, err := model.Load(cli.AppFs, path)
	if err != nil {
		return nil, cli.ModelParseError("loading model", err)
	}
	return reg, nil
}

// buildTable creates name from reg, applies --where conditions and then
// follows each --ref in order.
func buildTable(reg *model.Registry, name string, ds datasource.DataSource, f tableFlags) (*table.Table, error) {
	t, err := reg.Table(name, ds)
	if err != nil {
		return nil, err
	}
	conds, err := parseAssignments(f.where)
	if err != nil {
		return nil, err
	}
	for _, c := range conds {
		col, err := t.Column(c.name)
		if err != nil {
			return nil, err
		}
		t.AddCondition(col.Eq(c.value))
	}
	for _, rel := range f.refs {
		if t, err = t.Ref(rel); err != nil {
			return nil, err
		}
	}
	return t, nil
}

type assignment struct {
	name  string
	value string
}

// parseAssignments parses col=value pairs.
func parseAssignments(pairs []string) ([]assignment, error) {
	out := make([]assignment, 0, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected column=value, got %q", p)
		}
		out = append(out, assignment{name: name, value: value})
	}
	return out, nil
}

func assignmentMap(pairs []string) (map[string]any, error) {
	as, err := parseAssignments(pairs)
	if err != nil {
		return nil, err
	}
	m := make(map[string]any, len(as))
	for _, a := range as {
		m[a.name] = a.value
	}
	return m, nil
}
