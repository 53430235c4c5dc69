// Package mip provides a small mixed binary-integer programming layer: a
// linear model builder and a branch-and-bound search whose LP relaxations are
// delegated to gonum's simplex solver. The search treats each simplex call as
// an opaque blocking invocation with three outcomes: optimal, infeasible, or
// error.
package mip

import "fmt"

// Sense of a linear constraint.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	default:
		return "=="
	}
}

type constraint struct {
	name  string
	terms map[int]float64
	sense Sense
	rhs   float64
}

// Model is a linear program with binary and non-negative continuous
// variables, maximizing a linear objective.
type Model struct {
	names     []string
	binary    []bool
	objective map[int]float64
	cons      []constraint
}

// NewModel returns an empty maximization model.
func NewModel() *Model {
	return &Model{objective: make(map[int]float64)}
}

// AddBinary adds a 0/1 decision variable and returns its index.
func (m *Model) AddBinary(name string) int {
	m.names = append(m.names, name)
	m.binary = append(m.binary, true)
	return len(m.names) - 1
}

// AddContinuous adds a non-negative continuous variable and returns its
// index.
func (m *Model) AddContinuous(name string) int {
	m.names = append(m.names, name)
	m.binary = append(m.binary, false)
	return len(m.names) - 1
}

// NumVariables returns the number of variables added so far.
func (m *Model) NumVariables() int {
	return len(m.names)
}

// AddConstraint adds a linear constraint sum(terms) sense rhs.
func (m *Model) AddConstraint(name string, terms map[int]float64, sense Sense, rhs float64) error {
	for v := range terms {
		if v < 0 || v >= len(m.names) {
			return fmt.Errorf("constraint %s references unknown variable %d", name, v)
		}
	}
	copied := make(map[int]float64, len(terms))
	for v, c := range terms {
		if c != 0 {
			copied[v] = c
		}
	}
	m.cons = append(m.cons, constraint{name: name, terms: copied, sense: sense, rhs: rhs})
	return nil
}

// AddObjectiveTerm adds c*v to the maximization objective. Terms for the same
// variable accumulate, so soft penalty components can be layered on top of
// the primary objective.
func (m *Model) AddObjectiveTerm(v int, c float64) {
	m.objective[v] += c
}
