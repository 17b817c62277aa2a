package csp

import "fmt"

// Constraint is a boolean-valued expression over variables. Like Term, the
// variant set is closed: BoolConst, Bool, Negation, Conjunction,
// Disjunction, Implication, ExclusiveOr, Equivalence, the six comparisons
// and the global constraints.
type Constraint interface {
	// Eval reports whether the constraint holds under s.
	Eval(s Solution) (bool, error)

	collect(r *refs)
}

// BoolConst is a boolean literal.
type BoolConst bool

// True and False are the constant constraints.
const (
	True  BoolConst = true
	False BoolConst = false
)

func (c BoolConst) Eval(Solution) (bool, error) { return bool(c), nil }
func (c BoolConst) collect(*refs)               {}

// Negation is the logical complement of X.
type Negation struct {
	X Constraint
}

// Not returns the negation of x.
func Not(x Constraint) Negation { return Negation{X: x} }

func (c Negation) Eval(s Solution) (bool, error) {
	v, err := c.X.Eval(s)
	if err != nil {
		return false, err
	}
	return !v, nil
}

func (c Negation) collect(r *refs) { c.X.collect(r) }

// Conjunction holds when all of Constraints hold. An empty Conjunction is
// true.
type Conjunction struct {
	Constraints []Constraint
}

// And returns the conjunction of the given constraints.
func And(xs ...Constraint) Conjunction { return Conjunction{Constraints: xs} }

func (c Conjunction) Eval(s Solution) (bool, error) {
	for _, x := range c.Constraints {
		v, err := x.Eval(s)
		if err != nil {
			return false, err
		}
		if !v {
			return false, nil
		}
	}
	return true, nil
}

func (c Conjunction) collect(r *refs) { collectConstraints(r, c.Constraints) }

// Disjunction holds when at least one of Constraints holds. An empty
// Disjunction is false.
type Disjunction struct {
	Constraints []Constraint
}

// Or returns the disjunction of the given constraints.
func Or(xs ...Constraint) Disjunction { return Disjunction{Constraints: xs} }

func (c Disjunction) Eval(s Solution) (bool, error) {
	for _, x := range c.Constraints {
		v, err := x.Eval(s)
		if err != nil {
			return false, err
		}
		if v {
			return true, nil
		}
	}
	return false, nil
}

func (c Disjunction) collect(r *refs) { collectConstraints(r, c.Constraints) }

// Implication is X implies Y.
type Implication struct {
	X, Y Constraint
}

// Imp returns the implication from x to y.
func Imp(x, y Constraint) Implication { return Implication{X: x, Y: y} }

func (c Implication) Eval(s Solution) (bool, error) {
	a, b, err := evalBoolPair(s, c.X, c.Y)
	if err != nil {
		return false, err
	}
	return !a || b, nil
}

func (c Implication) collect(r *refs) {
	c.X.collect(r)
	c.Y.collect(r)
}

// ExclusiveOr holds when exactly one of X, Y holds.
type ExclusiveOr struct {
	X, Y Constraint
}

// Xor returns the exclusive disjunction of x and y.
func Xor(x, y Constraint) ExclusiveOr { return ExclusiveOr{X: x, Y: y} }

func (c ExclusiveOr) Eval(s Solution) (bool, error) {
	a, b, err := evalBoolPair(s, c.X, c.Y)
	if err != nil {
		return false, err
	}
	return a != b, nil
}

func (c ExclusiveOr) collect(r *refs) {
	c.X.collect(r)
	c.Y.collect(r)
}

// Equivalence holds when X and Y agree.
type Equivalence struct {
	X, Y Constraint
}

// Iff returns the equivalence of x and y.
func Iff(x, y Constraint) Equivalence { return Equivalence{X: x, Y: y} }

func (c Equivalence) Eval(s Solution) (bool, error) {
	a, b, err := evalBoolPair(s, c.X, c.Y)
	if err != nil {
		return false, err
	}
	return a == b, nil
}

func (c Equivalence) collect(r *refs) {
	c.X.collect(r)
	c.Y.collect(r)
}

// Equal is X == Y over terms.
type Equal struct {
	X, Y Term
}

// Eq returns the equality constraint between x and y.
func Eq(x, y Term) Equal { return Equal{X: x, Y: y} }

func (c Equal) Eval(s Solution) (bool, error) {
	a, b, err := evalPair(s, c.X, c.Y)
	if err != nil {
		return false, err
	}
	return a == b, nil
}

func (c Equal) collect(r *refs) {
	c.X.collect(r)
	c.Y.collect(r)
}

// NotEqual is X != Y over terms.
type NotEqual struct {
	X, Y Term
}

// Ne returns the disequality constraint between x and y.
func Ne(x, y Term) NotEqual { return NotEqual{X: x, Y: y} }

func (c NotEqual) Eval(s Solution) (bool, error) {
	a, b, err := evalPair(s, c.X, c.Y)
	if err != nil {
		return false, err
	}
	return a != b, nil
}

func (c NotEqual) collect(r *refs) {
	c.X.collect(r)
	c.Y.collect(r)
}

// LessEq is X <= Y over terms.
type LessEq struct {
	X, Y Term
}

// Le returns the constraint x <= y.
func Le(x, y Term) LessEq { return LessEq{X: x, Y: y} }

func (c LessEq) Eval(s Solution) (bool, error) {
	a, b, err := evalPair(s, c.X, c.Y)
	if err != nil {
		return false, err
	}
	return a <= b, nil
}

func (c LessEq) collect(r *refs) {
	c.X.collect(r)
	c.Y.collect(r)
}

// LessThan is X < Y over terms.
type LessThan struct {
	X, Y Term
}

// Lt returns the constraint x < y.
func Lt(x, y Term) LessThan { return LessThan{X: x, Y: y} }

func (c LessThan) Eval(s Solution) (bool, error) {
	a, b, err := evalPair(s, c.X, c.Y)
	if err != nil {
		return false, err
	}
	return a < b, nil
}

func (c LessThan) collect(r *refs) {
	c.X.collect(r)
	c.Y.collect(r)
}

// GreaterEq is X >= Y over terms.
type GreaterEq struct {
	X, Y Term
}

// Ge returns the constraint x >= y.
func Ge(x, y Term) GreaterEq { return GreaterEq{X: x, Y: y} }

func (c GreaterEq) Eval(s Solution) (bool, error) {
	a, b, err := evalPair(s, c.X, c.Y)
	if err != nil {
		return false, err
	}
	return a >= b, nil
}

func (c GreaterEq) collect(r *refs) {
	c.X.collect(r)
	c.Y.collect(r)
}

// GreaterThan is X > Y over terms.
type GreaterThan struct {
	X, Y Term
}

// Gt returns the constraint x > y.
func Gt(x, y Term) GreaterThan { return GreaterThan{X: x, Y: y} }

func (c GreaterThan) Eval(s Solution) (bool, error) {
	a, b, err := evalPair(s, c.X, c.Y)
	if err != nil {
		return false, err
	}
	return a > b, nil
}

func (c GreaterThan) collect(r *refs) {
	c.X.collect(r)
	c.Y.collect(r)
}

// Comparator selects the comparison applied by WeightedSum and Count. Its
// values double as the comparison keywords of the emitted IR.
type Comparator string

const (
	CmpEq Comparator = "eq"
	CmpNe Comparator = "ne"
	CmpLt Comparator = "lt"
	CmpLe Comparator = "le"
	CmpGt Comparator = "gt"
	CmpGe Comparator = "ge"
)

// Valid reports whether c is one of the six comparators.
func (c Comparator) Valid() bool {
	switch c {
	case CmpEq, CmpNe, CmpLt, CmpLe, CmpGt, CmpGe:
		return true
	}
	return false
}

func (c Comparator) compare(a, b int64) (bool, error) {
	switch c {
	case CmpEq:
		return a == b, nil
	case CmpNe:
		return a != b, nil
	case CmpLt:
		return a < b, nil
	case CmpLe:
		return a <= b, nil
	case CmpGt:
		return a > b, nil
	case CmpGe:
		return a >= b, nil
	}
	return false, fmt.Errorf("%w: %q", ErrInvalidComparator, string(c))
}

func evalBoolPair(s Solution, x, y Constraint) (bool, bool, error) {
	a, err := x.Eval(s)
	if err != nil {
		return false, false, err
	}
	b, err := y.Eval(s)
	if err != nil {
		return false, false, err
	}
	return a, b, nil
}

func collectConstraints(r *refs, xs []Constraint) {
	for _, x := range xs {
		if x != nil {
			x.collect(r)
		}
	}
}
