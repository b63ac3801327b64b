// Package querybuilder renders sparse optional fields into parameterized SQL
// fragments with PostgreSQL positional placeholders. Values only ever travel
// as arguments; they are never written into the clause text.
package querybuilder

import (
	"fmt"
	"strings"
)

// Operator is a comparison used by filter predicates.
type Operator string

const (
	OpEq  Operator = "="
	OpGte Operator = ">="
	OpLte Operator = "<="
)

// Predicate is a single (field, operator, value) triple.
type Predicate struct {
	Field string
	Op    Operator
	Value any
}

// Clause is rendered SQL text plus its positional arguments, in placeholder order.
type Clause struct {
	Text string
	Args []any
}

// Filter accumulates conjunctive predicates.
type Filter struct {
	leading    []any
	predicates []Predicate
}

// NewFilter starts a filter whose leading args (typically limit and offset)
// occupy $1..$n ahead of any predicate.
func NewFilter(leading ...any) *Filter {
	return &Filter{leading: leading}
}

// Where appends a predicate.
func (f *Filter) Where(field string, op Operator, value any) *Filter {
	f.predicates = append(f.predicates, Predicate{Field: field, Op: op, Value: value})
	return f
}

// WhereIf appends a predicate only when present is true.
func (f *Filter) WhereIf(present bool, field string, op Operator, value any) *Filter {
	if present {
		return f.Where(field, op, value)
	}
	return f
}

// Predicates returns a copy of the accumulated predicates.
func (f *Filter) Predicates() []Predicate {
	return append([]Predicate(nil), f.predicates...)
}

// Build renders " WHERE a = $3 AND b >= $4" (empty when no predicate was
// added). Args holds the leading args followed by predicate values.
func (f *Filter) Build() Clause {
	args := append(make([]any, 0, len(f.leading)+len(f.predicates)), f.leading...)
	var sb strings.Builder
	emitted := false
	for _, p := range f.predicates {
		args = append(args, p.Value)
		if emitted {
			sb.WriteString(" AND ")
		} else {
			sb.WriteString(" WHERE ")
			emitted = true
		}
		fmt.Fprintf(&sb, "%s %s $%d", p.Field, p.Op, len(args))
	}
	return Clause{Text: sb.String(), Args: args}
}

// Update accumulates a SET list for a partial update.
type Update struct {
	touch string
	args  []any
	sets  []string
}

// NewUpdate starts a SET list. Leading args (typically the row id) occupy
// $1..$n. touchColumn, when not empty, is always set to NOW().
func NewUpdate(touchColumn string, leading ...any) *Update {
	return &Update{touch: touchColumn, args: append([]any(nil), leading...)}
}

// Set appends "column = $n".
func (u *Update) Set(column string, value any) *Update {
	u.args = append(u.args, value)
	u.sets = append(u.sets, fmt.Sprintf("%s = $%d", column, len(u.args)))
	return u
}

// Len reports how many columns were set, excluding the touch column.
func (u *Update) Len() int {
	return len(u.sets)
}

// Build renders "a = $2, b = $3, updated_at = NOW()".
func (u *Update) Build() Clause {
	sets := append([]string(nil), u.sets...)
	if u.touch != "" {
		sets = append(sets, u.touch+" = NOW()")
	}
	return Clause{Text: strings.Join(sets, ", "), Args: append([]any(nil), u.args...)}
}

// SetOptional appends "column = $n" only when v is non-nil.
func SetOptional[T any](u *Update, column string, v *T) *Update {
	if v != nil {
		u.Set(column, *v)
	}
	return u
}
