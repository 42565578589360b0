// Package filter is the storage-neutral query language shared by every
// access layer. Stores translate it into SQL or evaluate it in memory.
package filter

import (
	"fmt"
	"slices"
)

type Operator string

const (
	OpEq        Operator = "eq"
	OpNe        Operator = "ne"
	OpNull      Operator = "null"
	OpNotNull   Operator = "notNull"
	OpGt        Operator = "gt"
	OpGte       Operator = "gte"
	OpLt        Operator = "lt"
	OpLte       Operator = "lte"
	OpIn        Operator = "in"
	OpContainsi Operator = "containsi"
)

func (o Operator) valid() bool {
	switch o {
	case OpEq, OpNe, OpNull, OpNotNull, OpGt, OpGte, OpLt, OpLte, OpIn, OpContainsi:
		return true
	}
	return false
}

type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
}

// Filter matches a record when every condition in Conditions holds and, if
// Any is non-empty, at least one condition in Any holds.
type Filter struct {
	Conditions []Condition `json:"conditions,omitempty"`
	Any        []Condition `json:"any,omitempty"`
}

// New builds a conjunctive filter.
func New(conds ...Condition) Filter {
	return Filter{Conditions: slices.Clone(conds)}
}

func Eq(field string, value any) Condition {
	return Condition{Field: field, Operator: OpEq, Value: value}
}

func IsNull(field string) Condition {
	return Condition{Field: field, Operator: OpNull}
}

func NotNull(field string) Condition {
	return Condition{Field: field, Operator: OpNotNull}
}

func Lt(field string, value any) Condition {
	return Condition{Field: field, Operator: OpLt, Value: value}
}

func Containsi(field string, value string) Condition {
	return Condition{Field: field, Operator: OpContainsi, Value: value}
}

func (f Filter) IsEmpty() bool {
	return len(f.Conditions) == 0 && len(f.Any) == 0
}

// Mentions reports whether any condition, conjunctive or alternative,
// references field.
func (f Filter) Mentions(field string) bool {
	for _, c := range f.Conditions {
		if c.Field == field {
			return true
		}
	}
	for _, c := range f.Any {
		if c.Field == field {
			return true
		}
	}
	return false
}

// With returns a copy of f with conds appended to the conjunction. The
// receiver is never modified.
func (f Filter) With(conds ...Condition) Filter {
	out := Filter{
		Conditions: make([]Condition, 0, len(f.Conditions)+len(conds)),
		Any:        slices.Clone(f.Any),
	}
	out.Conditions = append(out.Conditions, f.Conditions...)
	out.Conditions = append(out.Conditions, conds...)
	return out
}

// WithAny returns a copy of f with conds appended to the alternatives.
func (f Filter) WithAny(conds ...Condition) Filter {
	out := Filter{
		Conditions: slices.Clone(f.Conditions),
		Any:        make([]Condition, 0, len(f.Any)+len(conds)),
	}
	out.Any = append(out.Any, f.Any...)
	out.Any = append(out.Any, conds...)
	return out
}

func (f Filter) Validate() error {
	for _, c := range append(slices.Clone(f.Conditions), f.Any...) {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c Condition) Validate() error {
	if c.Field == "" {
		return fmt.Errorf("condition field is required")
	}
	if !c.Operator.valid() {
		return fmt.Errorf("unknown operator %q on field %q", c.Operator, c.Field)
	}
	if c.Operator == OpIn {
		if _, ok := values(c.Value); !ok {
			return fmt.Errorf("operator in on field %q requires a list value", c.Field)
		}
	}
	return nil
}

// Query is a filter plus paging and ordering.
type Query struct {
	Filter  Filter `json:"filter"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
	OrderBy string `json:"orderBy,omitempty"`
	Desc    bool   `json:"desc,omitempty"`
}

// ByID selects a single record by identifier.
func ByID(id string) Query {
	return Query{Filter: New(Eq("id", id)), Limit: 1}
}

// WithFilter returns a copy of q with its filter replaced.
func (q Query) WithFilter(f Filter) Query {
	q.Filter = f
	return q
}
