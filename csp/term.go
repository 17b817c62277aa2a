package csp

import "fmt"

// Term is an integer-valued expression over variables. The variant set is
// closed: Num, Var, Absolute, Negate, Sum, Difference, Product, Quotient,
// Remainder, Maximum, Minimum and Conditional. Terms are immutable values;
// they are built once and shared freely.
type Term interface {
	// Eval computes the value of the term under s.
	Eval(s Solution) (int64, error)

	collect(r *refs)
}

// Num is an integer literal.
type Num int64

func (n Num) Eval(Solution) (int64, error) { return int64(n), nil }
func (n Num) collect(*refs)                {}

// Absolute is |X|.
type Absolute struct {
	X Term
}

// Abs returns the absolute value of x.
func Abs(x Term) Absolute { return Absolute{X: x} }

func (t Absolute) Eval(s Solution) (int64, error) {
	x, err := t.X.Eval(s)
	if err != nil {
		return 0, err
	}
	if x < 0 {
		return -x, nil
	}
	return x, nil
}

func (t Absolute) collect(r *refs) { t.X.collect(r) }

// Negate is -X.
type Negate struct {
	X Term
}

// Neg returns the negation of x.
func Neg(x Term) Negate { return Negate{X: x} }

func (t Negate) Eval(s Solution) (int64, error) {
	x, err := t.X.Eval(s)
	if err != nil {
		return 0, err
	}
	return -x, nil
}

func (t Negate) collect(r *refs) { t.X.collect(r) }

// Sum is the sum of Terms. An empty Sum evaluates to 0.
type Sum struct {
	Terms []Term
}

// Add returns the sum of the given terms.
func Add(xs ...Term) Sum { return Sum{Terms: xs} }

func (t Sum) Eval(s Solution) (int64, error) {
	var acc int64
	for _, x := range t.Terms {
		v, err := x.Eval(s)
		if err != nil {
			return 0, err
		}
		acc += v
	}
	return acc, nil
}

func (t Sum) collect(r *refs) { collectTerms(r, t.Terms) }

// Difference is Terms[0] minus the sum of the remaining terms. An empty
// Difference evaluates to 0.
type Difference struct {
	Terms []Term
}

// Sub returns the left-associated difference of the given terms.
func Sub(xs ...Term) Difference { return Difference{Terms: xs} }

func (t Difference) Eval(s Solution) (int64, error) {
	if len(t.Terms) == 0 {
		return 0, nil
	}
	acc, err := t.Terms[0].Eval(s)
	if err != nil {
		return 0, err
	}
	for _, x := range t.Terms[1:] {
		v, err := x.Eval(s)
		if err != nil {
			return 0, err
		}
		acc -= v
	}
	return acc, nil
}

func (t Difference) collect(r *refs) { collectTerms(r, t.Terms) }

// Product is the product of Terms. An empty Product evaluates to 1.
type Product struct {
	Terms []Term
}

// Mul returns the product of the given terms.
func Mul(xs ...Term) Product { return Product{Terms: xs} }

func (t Product) Eval(s Solution) (int64, error) {
	acc := int64(1)
	for _, x := range t.Terms {
		v, err := x.Eval(s)
		if err != nil {
			return 0, err
		}
		acc *= v
	}
	return acc, nil
}

func (t Product) collect(r *refs) { collectTerms(r, t.Terms) }

// Quotient is the division X / Y rounding toward negative infinity,
// whatever the signs of the operands.
type Quotient struct {
	X, Y Term
}

// Div returns the floor division of x by y.
func Div(x, y Term) Quotient { return Quotient{X: x, Y: y} }

func (t Quotient) Eval(s Solution) (int64, error) {
	a, b, err := evalPair(s, t.X, t.Y)
	if err != nil {
		return 0, err
	}
	if b == 0 {
		return 0, fmt.Errorf("%w: %d / 0", ErrDivisionByZero, a)
	}
	if b > 0 {
		if a >= 0 {
			return a / b, nil
		}
		return (a - b + 1) / b, nil
	}
	if a >= 0 {
		return (a - b - 1) / b, nil
	}
	return a / b, nil
}

func (t Quotient) collect(r *refs) {
	t.X.collect(r)
	t.Y.collect(r)
}

// Remainder is the remainder of X / Y. For Y > 0 the result lies in
// (0, Y]: an exact multiple yields Y, never 0.
type Remainder struct {
	X, Y Term
}

// Mod returns the remainder of x by y.
func Mod(x, y Term) Remainder { return Remainder{X: x, Y: y} }

func (t Remainder) Eval(s Solution) (int64, error) {
	a, b, err := evalPair(s, t.X, t.Y)
	if err != nil {
		return 0, err
	}
	if b == 0 {
		return 0, fmt.Errorf("%w: %d %% 0", ErrDivisionByZero, a)
	}
	r := a % b
	if r > 0 {
		return r, nil
	}
	return r + b, nil
}

func (t Remainder) collect(r *refs) {
	t.X.collect(r)
	t.Y.collect(r)
}

// Maximum is the largest of Terms. It is an error over no terms.
type Maximum struct {
	Terms []Term
}

// Max returns the maximum of the given terms.
func Max(xs ...Term) Maximum { return Maximum{Terms: xs} }

func (t Maximum) Eval(s Solution) (int64, error) {
	if len(t.Terms) == 0 {
		return 0, fmt.Errorf("%w: max", ErrEmptyOperands)
	}
	acc, err := t.Terms[0].Eval(s)
	if err != nil {
		return 0, err
	}
	for _, x := range t.Terms[1:] {
		v, err := x.Eval(s)
		if err != nil {
			return 0, err
		}
		if v > acc {
			acc = v
		}
	}
	return acc, nil
}

func (t Maximum) collect(r *refs) { collectTerms(r, t.Terms) }

// Minimum is the smallest of Terms. It is an error over no terms.
type Minimum struct {
	Terms []Term
}

// Min returns the minimum of the given terms.
func Min(xs ...Term) Minimum { return Minimum{Terms: xs} }

func (t Minimum) Eval(s Solution) (int64, error) {
	if len(t.Terms) == 0 {
		return 0, fmt.Errorf("%w: min", ErrEmptyOperands)
	}
	acc, err := t.Terms[0].Eval(s)
	if err != nil {
		return 0, err
	}
	for _, x := range t.Terms[1:] {
		v, err := x.Eval(s)
		if err != nil {
			return 0, err
		}
		if v < acc {
			acc = v
		}
	}
	return acc, nil
}

func (t Minimum) collect(r *refs) { collectTerms(r, t.Terms) }

// Conditional is Then if Cond holds, Else otherwise.
type Conditional struct {
	Cond Constraint
	Then Term
	Else Term
}

// If returns the term selecting then or els by cond.
func If(cond Constraint, then, els Term) Conditional {
	return Conditional{Cond: cond, Then: then, Else: els}
}

func (t Conditional) Eval(s Solution) (int64, error) {
	c, err := t.Cond.Eval(s)
	if err != nil {
		return 0, err
	}
	if c {
		return t.Then.Eval(s)
	}
	return t.Else.Eval(s)
}

func (t Conditional) collect(r *refs) {
	t.Cond.collect(r)
	t.Then.collect(r)
	t.Else.collect(r)
}

func evalPair(s Solution, x, y Term) (int64, int64, error) {
	a, err := x.Eval(s)
	if err != nil {
		return 0, 0, err
	}
	b, err := y.Eval(s)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
