package csp

import "fmt"

// Solution is the value assignment an external solver produced for a model.
// Eval calls on terms and constraints read variables through it.
type Solution interface {
	// IntValue returns the value assigned to v.
	IntValue(v Var) (int64, error)
	// BoolValue returns the value assigned to b.
	BoolValue(b Bool) (bool, error)
}

type intBinding struct {
	v     Var
	value int64
}

type boolBinding struct {
	b     Bool
	value bool
}

// Assignment is a Solution backed by maps. The zero value is not usable;
// use NewAssignment.
type Assignment struct {
	ints  map[string]intBinding
	bools map[string]boolBinding
}

// NewAssignment returns an empty assignment.
func NewAssignment() *Assignment {
	return &Assignment{
		ints:  make(map[string]intBinding),
		bools: make(map[string]boolBinding),
	}
}

// SetInt assigns value to v, replacing any previous assignment.
func (a *Assignment) SetInt(v Var, value int64) *Assignment {
	a.ints[v.key()] = intBinding{v: v, value: value}
	return a
}

// SetBool assigns value to b, replacing any previous assignment.
func (a *Assignment) SetBool(b Bool, value bool) *Assignment {
	a.bools[b.key()] = boolBinding{b: b, value: value}
	return a
}

func (a *Assignment) IntValue(v Var) (int64, error) {
	bound, ok := a.ints[v.key()]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownVariable, v)
	}
	return bound.value, nil
}

func (a *Assignment) BoolValue(b Bool) (bool, error) {
	bound, ok := a.bools[b.key()]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownVariable, b)
	}
	return bound.value, nil
}
