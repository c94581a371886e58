package frame

import (
	"fmt"
	"slices"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Selector picks columns by name when a plan runs.
type Selector struct {
	all     bool
	names   []string
	exclude []string
}

// All selects every column in schema order.
func All() *Selector {
	return &Selector{all: true}
}

// Cols selects the named columns in the given order.
func Cols(names ...string) *Selector {
	return &Selector{names: slices.Clone(names)}
}

// Exclude returns a selector that drops names from s.
func (s *Selector) Exclude(names ...string) *Selector {
	c := s.Clone()
	c.exclude = append(c.exclude, names...)
	return c
}

func (s *Selector) Clone() *Selector {
	return &Selector{
		all:     s.all,
		names:   slices.Clone(s.names),
		exclude: slices.Clone(s.exclude),
	}
}

// IntoExpr turns the selector into an expression that expands to one column
// expression per selected column.
func (s *Selector) IntoExpr() *Expr {
	return &Expr{op: opSelect, selector: s.Clone()}
}

// Expand resolves the selector against schema.
func (s *Selector) Expand(schema *arrow.Schema) ([]string, error) {
	var candidates []string
	if s.all {
		for _, f := range schema.Fields() {
			candidates = append(candidates, f.Name)
		}
	} else {
		for _, n := range s.names {
			if !schema.HasField(n) {
				return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, n)
			}
			candidates = append(candidates, n)
		}
	}
	out := candidates[:0:0]
	for _, n := range candidates {
		if !slices.Contains(s.exclude, n) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *Selector) String() string {
	var b strings.Builder
	if s.all {
		b.WriteString("all()")
	} else {
		fmt.Fprintf(&b, "cols(%s)", strings.Join(s.names, ", "))
	}
	if len(s.exclude) > 0 {
		fmt.Fprintf(&b, ".exclude(%s)", strings.Join(s.exclude, ", "))
	}
	return b.String()
}

// expandExprs replaces selector expressions with one column expression per
// selected column.
func expandExprs(schema *arrow.Schema, exprs []*Expr) ([]*Expr, error) {
	out := make([]*Expr, 0, len(exprs))
	for _, e := range exprs {
		if e.op != opSelect {
			out = append(out, e)
			continue
		}
		names, err := e.selector.Expand(schema)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			out = append(out, Col(n))
		}
	}
	return out, nil
}
