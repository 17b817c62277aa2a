package csp

import (
	"fmt"
	"slices"
)

// AllDifferent requires all Terms to take pairwise distinct values.
type AllDifferent struct {
	Terms []Term
}

func (c AllDifferent) Eval(s Solution) (bool, error) {
	seen := make(map[int64]struct{}, len(c.Terms))
	for _, x := range c.Terms {
		v, err := x.Eval(s)
		if err != nil {
			return false, err
		}
		if _, dup := seen[v]; dup {
			return false, nil
		}
		seen[v] = struct{}{}
	}
	return true, nil
}

func (c AllDifferent) collect(r *refs) { collectTerms(r, c.Terms) }

// WeightedTerm is one coefficient and term of a WeightedSum.
type WeightedTerm struct {
	Coeff int64
	Term  Term
}

// WeightedSum compares the linear combination of Items against Bound.
type WeightedSum struct {
	Items []WeightedTerm
	Cmp   Comparator
	Bound Term
}

// NewWeightedSum returns the constraint sum(coeff*term) cmp bound.
func NewWeightedSum(items []WeightedTerm, cmp Comparator, bound Term) (WeightedSum, error) {
	if !cmp.Valid() {
		return WeightedSum{}, fmt.Errorf("%w: %q", ErrInvalidComparator, string(cmp))
	}
	return WeightedSum{Items: items, Cmp: cmp, Bound: bound}, nil
}

func (c WeightedSum) Eval(s Solution) (bool, error) {
	var acc int64
	for _, it := range c.Items {
		v, err := it.Term.Eval(s)
		if err != nil {
			return false, err
		}
		acc += it.Coeff * v
	}
	bound, err := c.Bound.Eval(s)
	if err != nil {
		return false, err
	}
	return c.Cmp.compare(acc, bound)
}

func (c WeightedSum) collect(r *refs) {
	for _, it := range c.Items {
		it.Term.collect(r)
	}
	c.Bound.collect(r)
}

// Task is one job of a Cumulative constraint. A nil Origin or End stands for
// "unspecified"; at most one of the two may be nil, the missing bound is
// derived from Duration.
type Task struct {
	Origin   Term
	Duration Term
	End      Term
	Height   Term
}

// interval returns the half-open time span [lo, hi) the task occupies.
func (t Task) interval(s Solution) (lo, hi int64, err error) {
	if t.Origin == nil && t.End == nil {
		return 0, 0, fmt.Errorf("task has neither origin nor end")
	}
	d, err := t.Duration.Eval(s)
	if err != nil {
		return 0, 0, err
	}
	switch {
	case t.Origin == nil:
		hi, err = t.End.Eval(s)
		lo = hi - d
	case t.End == nil:
		lo, err = t.Origin.Eval(s)
		hi = lo + d
	default:
		if lo, err = t.Origin.Eval(s); err != nil {
			return 0, 0, err
		}
		hi, err = t.End.Eval(s)
	}
	return lo, hi, err
}

// Cumulative bounds, at every point in time, the summed Height of the tasks
// running at that point by Limit.
type Cumulative struct {
	Tasks []Task
	Limit Term
}

func (c Cumulative) Eval(s Solution) (bool, error) {
	type span struct {
		lo, hi, height int64
	}
	spans := make([]span, 0, len(c.Tasks))
	breakpoints := make([]int64, 0, 2*len(c.Tasks))
	for i, t := range c.Tasks {
		lo, hi, err := t.interval(s)
		if err != nil {
			return false, fmt.Errorf("cumulative task %d: %w", i, err)
		}
		h, err := t.Height.Eval(s)
		if err != nil {
			return false, err
		}
		if lo >= hi {
			continue
		}
		spans = append(spans, span{lo: lo, hi: hi, height: h})
		breakpoints = append(breakpoints, lo, hi)
	}
	limit, err := c.Limit.Eval(s)
	if err != nil {
		return false, err
	}
	slices.Sort(breakpoints)
	breakpoints = slices.Compact(breakpoints)
	// The load is constant on every interval between consecutive
	// breakpoints, so sampling each interval start is exhaustive.
	for i := 0; i+1 < len(breakpoints); i++ {
		at := breakpoints[i]
		var load int64
		for _, sp := range spans {
			if sp.lo <= at && at < sp.hi {
				load += sp.height
			}
		}
		if load > limit {
			return false, nil
		}
	}
	return true, nil
}

func (c Cumulative) collect(r *refs) {
	for _, t := range c.Tasks {
		if t.Origin != nil {
			t.Origin.collect(r)
		}
		t.Duration.collect(r)
		if t.End != nil {
			t.End.collect(r)
		}
		t.Height.collect(r)
	}
	c.Limit.collect(r)
}

// Element requires Value to equal the Index-th entry of List, counting from
// 1.
type Element struct {
	Index Term
	List  []Term
	Value Term
}

func (c Element) Eval(s Solution) (bool, error) {
	i, err := c.Index.Eval(s)
	if err != nil {
		return false, err
	}
	if i < 1 || i > int64(len(c.List)) {
		return false, fmt.Errorf("%w: %d not in [1, %d]", ErrIndexOutOfRange, i, len(c.List))
	}
	a, b, err := evalPair(s, c.List[i-1], c.Value)
	if err != nil {
		return false, err
	}
	return a == b, nil
}

func (c Element) collect(r *refs) {
	c.Index.collect(r)
	collectTerms(r, c.List)
	c.Value.collect(r)
}

// Span is one job of a Disjunctive constraint.
type Span struct {
	Origin   Term
	Duration Term
}

// Disjunctive requires the spans to not overlap pairwise.
type Disjunctive struct {
	Tasks []Span
}

func (c Disjunctive) Eval(s Solution) (bool, error) {
	origins := make([]int64, len(c.Tasks))
	ends := make([]int64, len(c.Tasks))
	for i, t := range c.Tasks {
		o, d, err := evalPair(s, t.Origin, t.Duration)
		if err != nil {
			return false, err
		}
		origins[i] = o
		ends[i] = o + d
	}
	for i := range c.Tasks {
		for j := i + 1; j < len(c.Tasks); j++ {
			if origins[i] < ends[j] && origins[j] < ends[i] {
				return false, nil
			}
		}
	}
	return true, nil
}

func (c Disjunctive) collect(r *refs) {
	for _, t := range c.Tasks {
		t.Origin.collect(r)
		t.Duration.collect(r)
	}
}

// LexLess requires Xs to strictly precede Ys in lexicographic order. A
// proper prefix precedes the longer sequence.
type LexLess struct {
	Xs, Ys []Term
}

func (c LexLess) Eval(s Solution) (bool, error) { return evalLex(s, c.Xs, c.Ys, true) }

func (c LexLess) collect(r *refs) {
	collectTerms(r, c.Xs)
	collectTerms(r, c.Ys)
}

// LexLessEq requires Xs to precede or equal Ys in lexicographic order.
type LexLessEq struct {
	Xs, Ys []Term
}

func (c LexLessEq) Eval(s Solution) (bool, error) { return evalLex(s, c.Xs, c.Ys, false) }

func (c LexLessEq) collect(r *refs) {
	collectTerms(r, c.Xs)
	collectTerms(r, c.Ys)
}

func evalLex(s Solution, xs, ys []Term, strict bool) (bool, error) {
	for i := 0; ; i++ {
		switch {
		case i >= len(xs) && i >= len(ys):
			return !strict, nil
		case i >= len(xs):
			return true, nil
		case i >= len(ys):
			return false, nil
		}
		a, b, err := evalPair(s, xs[i], ys[i])
		if err != nil {
			return false, err
		}
		if a != b {
			return a < b, nil
		}
	}
}

// Nvalue requires Count to equal the number of distinct values among Terms.
type Nvalue struct {
	Count Term
	Terms []Term
}

func (c Nvalue) Eval(s Solution) (bool, error) {
	distinct := make(map[int64]struct{}, len(c.Terms))
	for _, x := range c.Terms {
		v, err := x.Eval(s)
		if err != nil {
			return false, err
		}
		distinct[v] = struct{}{}
	}
	n, err := c.Count.Eval(s)
	if err != nil {
		return false, err
	}
	return n == int64(len(distinct)), nil
}

func (c Nvalue) collect(r *refs) {
	c.Count.collect(r)
	collectTerms(r, c.Terms)
}

// Cardinality pairs a value with the term counting its occurrences.
type Cardinality struct {
	Value int64
	Count Term
}

// GlobalCardinality requires, for each Cards entry, that exactly Count of
// Terms take Value.
type GlobalCardinality struct {
	Terms []Term
	Cards []Cardinality
}

func (c GlobalCardinality) Eval(s Solution) (bool, error) {
	vals, err := evalTerms(s, c.Terms)
	if err != nil {
		return false, err
	}
	return cardsHold(s, vals, c.Cards)
}

func (c GlobalCardinality) collect(r *refs) {
	collectTerms(r, c.Terms)
	for _, card := range c.Cards {
		card.Count.collect(r)
	}
}

// CostEntry is one row of a cost table: the cost charged when the term at
// Position takes the Rank-th value of the cardinality list. Position and
// Rank count from 1.
type CostEntry struct {
	Position int
	Rank     int
	Cost     int64
}

// GlobalCardinalityWithCost is GlobalCardinality plus a cost: the Table
// costs of the assigned values, summed over positions, must equal Cost.
type GlobalCardinalityWithCost struct {
	Terms []Term
	Cards []Cardinality
	Table []CostEntry
	Cost  Term
}

func (c GlobalCardinalityWithCost) Eval(s Solution) (bool, error) {
	vals, err := evalTerms(s, c.Terms)
	if err != nil {
		return false, err
	}

	rank := make(map[int64]int, len(c.Cards))
	for i, card := range c.Cards {
		rank[card.Value] = i + 1
	}
	cost := make(map[[2]int]int64, len(c.Table))
	for _, e := range c.Table {
		cost[[2]int{e.Position, e.Rank}] = e.Cost
	}

	var total int64
	for p, v := range vals {
		rk, ok := rank[v]
		if !ok {
			return false, fmt.Errorf("%w: value %d not in cardinality list", ErrCostLookup, v)
		}
		w, ok := cost[[2]int{p + 1, rk}]
		if !ok {
			return false, fmt.Errorf("%w: no entry for position %d rank %d", ErrCostLookup, p+1, rk)
		}
		total += w
	}

	want, err := c.Cost.Eval(s)
	if err != nil {
		return false, err
	}
	if total != want {
		return false, nil
	}
	return cardsHold(s, vals, c.Cards)
}

func (c GlobalCardinalityWithCost) collect(r *refs) {
	collectTerms(r, c.Terms)
	for _, card := range c.Cards {
		card.Count.collect(r)
	}
	c.Cost.collect(r)
}

// Count compares, via Cmp, the number of Terms equal to Value against
// Bound.
type Count struct {
	Value Term
	Terms []Term
	Cmp   Comparator
	Bound Term
}

// NewCount returns the constraint |{t in terms : t = value}| cmp bound.
func NewCount(value Term, terms []Term, cmp Comparator, bound Term) (Count, error) {
	if !cmp.Valid() {
		return Count{}, fmt.Errorf("%w: %q", ErrInvalidComparator, string(cmp))
	}
	return Count{Value: value, Terms: terms, Cmp: cmp, Bound: bound}, nil
}

func (c Count) Eval(s Solution) (bool, error) {
	want, err := c.Value.Eval(s)
	if err != nil {
		return false, err
	}
	var n int64
	for _, x := range c.Terms {
		v, err := x.Eval(s)
		if err != nil {
			return false, err
		}
		if v == want {
			n++
		}
	}
	bound, err := c.Bound.Eval(s)
	if err != nil {
		return false, err
	}
	return c.Cmp.compare(n, bound)
}

func (c Count) collect(r *refs) {
	c.Value.collect(r)
	collectTerms(r, c.Terms)
	c.Bound.collect(r)
}

func evalTerms(s Solution, xs []Term) ([]int64, error) {
	vals := make([]int64, len(xs))
	for i, x := range xs {
		v, err := x.Eval(s)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func cardsHold(s Solution, vals []int64, cards []Cardinality) (bool, error) {
	occurrences := make(map[int64]int64, len(cards))
	for _, v := range vals {
		occurrences[v]++
	}
	for _, card := range cards {
		want, err := card.Count.Eval(s)
		if err != nil {
			return false, err
		}
		if occurrences[card.Value] != want {
			return false, nil
		}
	}
	return true, nil
}
