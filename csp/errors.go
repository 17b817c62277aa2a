package csp

import (
	"errors"
	"strings"
)

var (
	// ErrDuplicateDeclaration is returned when a variable with the same name
	// and indices is declared twice in one store.
	ErrDuplicateDeclaration = errors.New("duplicate declaration")

	// ErrUndeclaredVariable is the target of UndeclaredVariableError.
	ErrUndeclaredVariable = errors.New("undeclared variable")

	// ErrInvalidDomain is returned for empty sets and enums, and for
	// intervals with lo > hi.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrInvalidComparator is returned when a comparator is not one of
	// eq, ne, lt, le, gt, ge.
	ErrInvalidComparator = errors.New("invalid comparator")

	// ErrIndexOutOfRange is returned by Element when the index evaluates
	// outside [1, len(list)].
	ErrIndexOutOfRange = errors.New("element index out of range")

	// ErrCostLookup is returned by GlobalCardinalityWithCost when a value is
	// not ranked by the cardinality list or the cost table has no entry for
	// a (position, rank) pair.
	ErrCostLookup = errors.New("cost table lookup failed")

	// ErrUnknownVariable is returned by a Solution for variables it holds no
	// value for.
	ErrUnknownVariable = errors.New("variable not assigned in solution")

	// ErrDivisionByZero is returned by Quotient and Remainder.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrEmptyOperands is returned by Maximum and Minimum over no terms.
	ErrEmptyOperands = errors.New("empty operand list")
)

// UndeclaredVariableError reports every free variable of a constraint batch
// that is not declared in the store, in first-appearance order.
type UndeclaredVariableError struct {
	Names []string
}

func (e *UndeclaredVariableError) Error() string {
	return "undeclared variable: " + strings.Join(e.Names, ", ")
}

func (e *UndeclaredVariableError) Unwrap() error { return ErrUndeclaredVariable }
