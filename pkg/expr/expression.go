package expr

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pthm/vantage"
)

// placeholder marks a parameter position in a template.
const placeholder = "{}"

// Chunk is implemented by everything that renders to an Expression.
type Chunk interface {
	Render() Expression
}

// Field is a Chunk that can appear in the result column list of a SELECT.
// RenderColumn receives the output name the query registered the field
// under; implementations decide whether the name needs an AS clause.
type Field interface {
	Chunk
	RenderColumn(alias string) Expression
}

// Expression is a SQL template plus its ordered parameters.
//
// The zero value is an empty expression. An Expression built from invalid
// input carries an error (see Err) that propagates through composition.
type Expression struct {
	template string
	params   []any
	err      error
}

// New creates an Expression. Each "{}" in template consumes one parameter,
// left to right. Parameters implementing Chunk are rendered and spliced in
// place, so the result always holds a flat parameter list.
//
// A mismatch between placeholders and parameters produces an invalid
// Expression wrapping vantage.ErrPlaceholderMismatch.
func New(template string, params ...any) Expression {
	if n := strings.Count(template, placeholder); n != len(params) {
		return Invalid(fmt.Errorf("%w: %q has %d placeholders, got %d parameters",
			vantage.ErrPlaceholderMismatch, template, n, len(params)))
	}
	if len(params) == 0 {
		return Expression{template: template}
	}

	var b strings.Builder
	flat := make([]any, 0, len(params))
	rest := template
	for _, p := range params {
		i := strings.Index(rest, placeholder)
		b.WriteString(rest[:i])
		rest = rest[i+len(placeholder):]

		c, ok := p.(Chunk)
		if !ok {
			b.WriteString(placeholder)
			flat = append(flat, p)
			continue
		}
		e := c.Render()
		if e.err != nil {
			return Invalid(e.err)
		}
		b.WriteString(e.template)
		flat = append(flat, e.params...)
	}
	b.WriteString(rest)

	return Expression{template: b.String(), params: flat}
}

// Invalid returns an Expression that carries err. Composing it into another
// Expression yields an invalid result; DataSources refuse to execute it.
func Invalid(err error) Expression {
	return Expression{err: err}
}

// Empty returns an Expression with no text and no parameters.
func Empty() Expression {
	return Expression{}
}

// Value renders a single scalar as a placeholder bound to v.
func Value(v any) Expression {
	return Expression{template: placeholder, params: []any{v}}
}

// AsType renders v cast to typ, e.g. {}::int4.
func AsType(v any, typ string) Expression {
	return New(placeholder+"::"+typ, v)
}

// Compose joins the rendered chunks with delim. Templates are concatenated
// in order and so are the parameter lists.
func Compose(delim string, chunks ...Chunk) Expression {
	var b strings.Builder
	var params []any
	for i, c := range chunks {
		e := c.Render()
		if e.err != nil {
			return Invalid(e.err)
		}
		if i > 0 {
			b.WriteString(delim)
		}
		b.WriteString(e.template)
		params = append(params, e.params...)
	}
	return Expression{template: b.String(), params: params}
}

// ComposeExpressions is Compose for a slice of Expressions.
func ComposeExpressions(delim string, exprs []Expression) Expression {
	chunks := make([]Chunk, len(exprs))
	for i, e := range exprs {
		chunks[i] = e
	}
	return Compose(delim, chunks...)
}

// Template returns the template with "{}" placeholders.
func (e Expression) Template() string { return e.template }

// Params returns a copy of the parameter list.
func (e Expression) Params() []any {
	if len(e.params) == 0 {
		return nil
	}
	out := make([]any, len(e.params))
	copy(out, e.params)
	return out
}

// Err returns the construction error, if any.
func (e Expression) Err() error { return e.err }

// IsEmpty reports whether the expression has no text.
func (e Expression) IsEmpty() bool { return e.template == "" && e.err == nil }

// Render implements Chunk.
func (e Expression) Render() Expression { return e }

// RenderColumn renders the expression as a result column: (template) AS alias.
func (e Expression) RenderColumn(alias string) Expression {
	if alias == "" {
		return New("({})", e)
	}
	return New("({}) AS "+alias, e)
}

// Parens wraps the expression in parentheses.
func (e Expression) Parens() Expression {
	return New("({})", e)
}

// Final renders the template for execution with $1, $2, ... markers.
func (e Expression) Final() string {
	return e.FinalWith(Dollar)
}

// FinalWith renders the template for execution, replacing placeholders
// left to right with the markers of style.
func (e Expression) FinalWith(style Placeholder) string {
	if len(e.params) == 0 {
		return e.template
	}
	var b strings.Builder
	b.Grow(len(e.template) + len(e.params)*2)
	rest := e.template
	for n := 1; ; n++ {
		i := strings.Index(rest, placeholder)
		if i < 0 {
			break
		}
		b.WriteString(rest[:i])
		b.WriteString(style.Marker(n))
		rest = rest[i+len(placeholder):]
	}
	b.WriteString(rest)
	return b.String()
}

// Preview substitutes each parameter as JSON text. The result is for logs
// and diagnostics only; never execute it.
func (e Expression) Preview() string {
	if e.err != nil {
		return "<invalid: " + e.err.Error() + ">"
	}
	var b strings.Builder
	rest := e.template
	for _, p := range e.params {
		i := strings.Index(rest, placeholder)
		if i < 0 {
			break
		}
		b.WriteString(rest[:i])
		b.WriteString(previewValue(p))
		rest = rest[i+len(placeholder):]
	}
	b.WriteString(rest)
	return b.String()
}

// String implements fmt.Stringer using Preview.
func (e Expression) String() string { return e.Preview() }

func previewValue(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}
