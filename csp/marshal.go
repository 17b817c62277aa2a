package csp

import (
	"bytes"
	"fmt"
	"io"
	"reflect"

	"github.com/blang/semver/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/sequencer/copris"
	"github.com/sequencer/copris/logger"
)

// storeSnapshot is the serialized form of a Store. Domains runs parallel to
// Variables; the identity-keyed maps are rebuilt on load.
type storeSnapshot struct {
	Version string

	Variables   []Var
	Domains     []Domain
	Bools       []Bool
	Constraints []Constraint

	Objective    Var
	Direction    Direction
	HasObjective bool

	MarkVariables   int
	MarkBools       int
	MarkConstraints int

	AuxInts  int
	AuxBools int
}

// WriteTo serializes the store. It implements io.WriterTo.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	enc, err := cbor.CoreDetEncOptions().EncModeWithTags(tagSet())
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	if err := enc.NewEncoder(&buf).Encode(s.snapshot()); err != nil {
		return 0, err
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// ReadFrom deserializes a store written by WriteTo, replacing the receiver's
// contents. It implements io.ReaderFrom.
func (s *Store) ReadFrom(r io.Reader) (int64, error) {
	dm, err := cbor.DecOptions{IntDec: cbor.IntDecConvertSigned}.DecModeWithTags(tagSet())
	if err != nil {
		return 0, err
	}
	decoder := dm.NewDecoder(r)
	var snap storeSnapshot
	if err := decoder.Decode(&snap); err != nil {
		return int64(decoder.NumBytesRead()), err
	}
	n := int64(decoder.NumBytesRead())
	if err := checkVersionHeader(snap.Version); err != nil {
		return n, err
	}
	if err := s.restore(&snap); err != nil {
		return n, err
	}
	return n, nil
}

func (s *Store) snapshot() storeSnapshot {
	domains := make([]Domain, len(s.variables))
	for i, v := range s.variables {
		domains[i] = s.domains[v.key()]
	}
	return storeSnapshot{
		Version:         copris.Version.String(),
		Variables:       s.variables,
		Domains:         domains,
		Bools:           s.bools,
		Constraints:     s.constraints,
		Objective:       s.objective,
		Direction:       s.direction,
		HasObjective:    s.hasObjective,
		MarkVariables:   s.mark.variables,
		MarkBools:       s.mark.bools,
		MarkConstraints: s.mark.constraints,
		AuxInts:         s.auxInts,
		AuxBools:        s.auxBools,
	}
}

func (s *Store) restore(snap *storeSnapshot) error {
	if len(snap.Domains) != len(snap.Variables) {
		return fmt.Errorf("corrupt store: %d variables but %d domains", len(snap.Variables), len(snap.Domains))
	}
	if snap.MarkVariables > len(snap.Variables) ||
		snap.MarkBools > len(snap.Bools) ||
		snap.MarkConstraints > len(snap.Constraints) {
		return fmt.Errorf("corrupt store: checkpoint beyond collection sizes")
	}

	domains := make(map[string]Domain, len(snap.Variables))
	for i, v := range snap.Variables {
		d, err := normDomain(snap.Domains[i])
		if err != nil {
			return fmt.Errorf("domain of %s: %w", v, err)
		}
		domains[v.key()] = d
	}
	declaredBools := make(map[string]struct{}, len(snap.Bools))
	for _, b := range snap.Bools {
		declaredBools[b.key()] = struct{}{}
	}
	for i, c := range snap.Constraints {
		nc, err := normConstraint(c)
		if err != nil {
			return fmt.Errorf("constraint %d: %w", i, err)
		}
		snap.Constraints[i] = nc
	}

	s.variables = snap.Variables
	s.domains = domains
	s.bools = snap.Bools
	s.declaredBools = declaredBools
	s.constraints = snap.Constraints
	s.objective = snap.Objective
	s.direction = snap.Direction
	s.hasObjective = snap.HasObjective
	s.mark = checkpoint{
		variables:   snap.MarkVariables,
		bools:       snap.MarkBools,
		constraints: snap.MarkConstraints,
	}
	s.auxInts = snap.AuxInts
	s.auxBools = snap.AuxBools
	return nil
}

// checkVersionHeader parses the version header of a serialized store and
// warns on a mismatch with the running library version.
func checkVersionHeader(object string) error {
	objectVersion, err := semver.Parse(object)
	if err != nil {
		return fmt.Errorf("when parsing store version header: %w", err)
	}
	if copris.Version.Compare(objectVersion) != 0 {
		log := logger.With("store")
		log.Warn().Str("binary", copris.Version.String()).Str("object", objectVersion.String()).Msg("copris version (binary) mismatch with serialized store. there are no guarantees on compatibility")
	}
	return nil
}

func tagSet() cbor.TagSet {
	ts := cbor.NewTagSet()
	// https://www.iana.org/assignments/cbor-tags/cbor-tags.xhtml
	// 65536-15309735 Unassigned
	tagNum := uint64(5310000)
	addType := func(t reflect.Type) {
		if err := ts.Add(
			cbor.TagOptions{EncTag: cbor.EncTagRequired, DecTag: cbor.DecTagRequired},
			t,
			tagNum,
		); err != nil {
			panic(err)
		}
		tagNum++
	}

	addType(reflect.TypeOf(Interval{}))
	addType(reflect.TypeOf(Set{}))
	addType(reflect.TypeOf(Enum{}))

	addType(reflect.TypeOf(Num(0)))
	addType(reflect.TypeOf(Var{}))
	addType(reflect.TypeOf(Absolute{}))
	addType(reflect.TypeOf(Negate{}))
	addType(reflect.TypeOf(Sum{}))
	addType(reflect.TypeOf(Difference{}))
	addType(reflect.TypeOf(Product{}))
	addType(reflect.TypeOf(Quotient{}))
	addType(reflect.TypeOf(Remainder{}))
	addType(reflect.TypeOf(Maximum{}))
	addType(reflect.TypeOf(Minimum{}))
	addType(reflect.TypeOf(Conditional{}))

	addType(reflect.TypeOf(BoolConst(false)))
	addType(reflect.TypeOf(Bool{}))
	addType(reflect.TypeOf(Negation{}))
	addType(reflect.TypeOf(Conjunction{}))
	addType(reflect.TypeOf(Disjunction{}))
	addType(reflect.TypeOf(Implication{}))
	addType(reflect.TypeOf(ExclusiveOr{}))
	addType(reflect.TypeOf(Equivalence{}))
	addType(reflect.TypeOf(Equal{}))
	addType(reflect.TypeOf(NotEqual{}))
	addType(reflect.TypeOf(LessEq{}))
	addType(reflect.TypeOf(LessThan{}))
	addType(reflect.TypeOf(GreaterEq{}))
	addType(reflect.TypeOf(GreaterThan{}))

	addType(reflect.TypeOf(AllDifferent{}))
	addType(reflect.TypeOf(WeightedSum{}))
	addType(reflect.TypeOf(Cumulative{}))
	addType(reflect.TypeOf(Element{}))
	addType(reflect.TypeOf(Disjunctive{}))
	addType(reflect.TypeOf(LexLess{}))
	addType(reflect.TypeOf(LexLessEq{}))
	addType(reflect.TypeOf(Nvalue{}))
	addType(reflect.TypeOf(GlobalCardinality{}))
	addType(reflect.TypeOf(GlobalCardinalityWithCost{}))
	addType(reflect.TypeOf(Count{}))

	return ts
}

// The decoder materializes tagged values stored in interface fields as
// pointers to the registered types. The norm* walk rebuilds the value-typed
// trees the rest of the package works with.

func deref(x any) any {
	rv := reflect.ValueOf(x)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return rv.Elem().Interface()
	}
	return x
}

func normDomain(d Domain) (Domain, error) {
	if d == nil {
		return nil, fmt.Errorf("nil domain")
	}
	switch v := deref(d).(type) {
	case Interval:
		return v, nil
	case Set:
		return v, nil
	case Enum:
		return v, nil
	}
	return nil, fmt.Errorf("unexpected domain type %T", d)
}

func normTerm(t Term) (Term, error) {
	if t == nil {
		return nil, nil
	}
	switch v := deref(t).(type) {
	case Num:
		return v, nil
	case Var:
		return v, nil
	case Absolute:
		x, err := normTerm(v.X)
		if err != nil {
			return nil, err
		}
		return Absolute{X: x}, nil
	case Negate:
		x, err := normTerm(v.X)
		if err != nil {
			return nil, err
		}
		return Negate{X: x}, nil
	case Sum:
		xs, err := normTerms(v.Terms)
		if err != nil {
			return nil, err
		}
		return Sum{Terms: xs}, nil
	case Difference:
		xs, err := normTerms(v.Terms)
		if err != nil {
			return nil, err
		}
		return Difference{Terms: xs}, nil
	case Product:
		xs, err := normTerms(v.Terms)
		if err != nil {
			return nil, err
		}
		return Product{Terms: xs}, nil
	case Quotient:
		x, y, err := normTermPair(v.X, v.Y)
		if err != nil {
			return nil, err
		}
		return Quotient{X: x, Y: y}, nil
	case Remainder:
		x, y, err := normTermPair(v.X, v.Y)
		if err != nil {
			return nil, err
		}
		return Remainder{X: x, Y: y}, nil
	case Maximum:
		xs, err := normTerms(v.Terms)
		if err != nil {
			return nil, err
		}
		return Maximum{Terms: xs}, nil
	case Minimum:
		xs, err := normTerms(v.Terms)
		if err != nil {
			return nil, err
		}
		return Minimum{Terms: xs}, nil
	case Conditional:
		cond, err := normConstraint(v.Cond)
		if err != nil {
			return nil, err
		}
		then, els, err := normTermPair(v.Then, v.Else)
		if err != nil {
			return nil, err
		}
		return Conditional{Cond: cond, Then: then, Else: els}, nil
	}
	return nil, fmt.Errorf("unexpected term type %T", t)
}

func normTerms(xs []Term) ([]Term, error) {
	if xs == nil {
		return nil, nil
	}
	out := make([]Term, len(xs))
	for i, x := range xs {
		n, err := normTerm(x)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func normTermPair(x, y Term) (Term, Term, error) {
	nx, err := normTerm(x)
	if err != nil {
		return nil, nil, err
	}
	ny, err := normTerm(y)
	if err != nil {
		return nil, nil, err
	}
	return nx, ny, nil
}

func normConstraint(c Constraint) (Constraint, error) {
	if c == nil {
		return nil, fmt.Errorf("nil constraint")
	}
	switch v := deref(c).(type) {
	case BoolConst:
		return v, nil
	case Bool:
		return v, nil
	case Negation:
		x, err := normConstraint(v.X)
		if err != nil {
			return nil, err
		}
		return Negation{X: x}, nil
	case Conjunction:
		xs, err := normConstraints(v.Constraints)
		if err != nil {
			return nil, err
		}
		return Conjunction{Constraints: xs}, nil
	case Disjunction:
		xs, err := normConstraints(v.Constraints)
		if err != nil {
			return nil, err
		}
		return Disjunction{Constraints: xs}, nil
	case Implication:
		x, y, err := normConstraintPair(v.X, v.Y)
		if err != nil {
			return nil, err
		}
		return Implication{X: x, Y: y}, nil
	case ExclusiveOr:
		x, y, err := normConstraintPair(v.X, v.Y)
		if err != nil {
			return nil, err
		}
		return ExclusiveOr{X: x, Y: y}, nil
	case Equivalence:
		x, y, err := normConstraintPair(v.X, v.Y)
		if err != nil {
			return nil, err
		}
		return Equivalence{X: x, Y: y}, nil
	case Equal:
		x, y, err := normTermPair(v.X, v.Y)
		if err != nil {
			return nil, err
		}
		return Equal{X: x, Y: y}, nil
	case NotEqual:
		x, y, err := normTermPair(v.X, v.Y)
		if err != nil {
			return nil, err
		}
		return NotEqual{X: x, Y: y}, nil
	case LessEq:
		x, y, err := normTermPair(v.X, v.Y)
		if err != nil {
			return nil, err
		}
		return LessEq{X: x, Y: y}, nil
	case LessThan:
		x, y, err := normTermPair(v.X, v.Y)
		if err != nil {
			return nil, err
		}
		return LessThan{X: x, Y: y}, nil
	case GreaterEq:
		x, y, err := normTermPair(v.X, v.Y)
		if err != nil {
			return nil, err
		}
		return GreaterEq{X: x, Y: y}, nil
	case GreaterThan:
		x, y, err := normTermPair(v.X, v.Y)
		if err != nil {
			return nil, err
		}
		return GreaterThan{X: x, Y: y}, nil
	case AllDifferent:
		xs, err := normTerms(v.Terms)
		if err != nil {
			return nil, err
		}
		return AllDifferent{Terms: xs}, nil
	case WeightedSum:
		var items []WeightedTerm
		if v.Items != nil {
			items = make([]WeightedTerm, len(v.Items))
		}
		for i, it := range v.Items {
			x, err := normTerm(it.Term)
			if err != nil {
				return nil, err
			}
			items[i] = WeightedTerm{Coeff: it.Coeff, Term: x}
		}
		bound, err := normTerm(v.Bound)
		if err != nil {
			return nil, err
		}
		return WeightedSum{Items: items, Cmp: v.Cmp, Bound: bound}, nil
	case Cumulative:
		var tasks []Task
		if v.Tasks != nil {
			tasks = make([]Task, len(v.Tasks))
		}
		for i, task := range v.Tasks {
			origin, err := normTerm(task.Origin)
			if err != nil {
				return nil, err
			}
			duration, err := normTerm(task.Duration)
			if err != nil {
				return nil, err
			}
			end, err := normTerm(task.End)
			if err != nil {
				return nil, err
			}
			height, err := normTerm(task.Height)
			if err != nil {
				return nil, err
			}
			tasks[i] = Task{Origin: origin, Duration: duration, End: end, Height: height}
		}
		limit, err := normTerm(v.Limit)
		if err != nil {
			return nil, err
		}
		return Cumulative{Tasks: tasks, Limit: limit}, nil
	case Element:
		index, err := normTerm(v.Index)
		if err != nil {
			return nil, err
		}
		list, err := normTerms(v.List)
		if err != nil {
			return nil, err
		}
		value, err := normTerm(v.Value)
		if err != nil {
			return nil, err
		}
		return Element{Index: index, List: list, Value: value}, nil
	case Disjunctive:
		var tasks []Span
		if v.Tasks != nil {
			tasks = make([]Span, len(v.Tasks))
		}
		for i, task := range v.Tasks {
			origin, duration, err := normTermPair(task.Origin, task.Duration)
			if err != nil {
				return nil, err
			}
			tasks[i] = Span{Origin: origin, Duration: duration}
		}
		return Disjunctive{Tasks: tasks}, nil
	case LexLess:
		xs, err := normTerms(v.Xs)
		if err != nil {
			return nil, err
		}
		ys, err := normTerms(v.Ys)
		if err != nil {
			return nil, err
		}
		return LexLess{Xs: xs, Ys: ys}, nil
	case LexLessEq:
		xs, err := normTerms(v.Xs)
		if err != nil {
			return nil, err
		}
		ys, err := normTerms(v.Ys)
		if err != nil {
			return nil, err
		}
		return LexLessEq{Xs: xs, Ys: ys}, nil
	case Nvalue:
		count, err := normTerm(v.Count)
		if err != nil {
			return nil, err
		}
		xs, err := normTerms(v.Terms)
		if err != nil {
			return nil, err
		}
		return Nvalue{Count: count, Terms: xs}, nil
	case GlobalCardinality:
		xs, err := normTerms(v.Terms)
		if err != nil {
			return nil, err
		}
		cards, err := normCards(v.Cards)
		if err != nil {
			return nil, err
		}
		return GlobalCardinality{Terms: xs, Cards: cards}, nil
	case GlobalCardinalityWithCost:
		xs, err := normTerms(v.Terms)
		if err != nil {
			return nil, err
		}
		cards, err := normCards(v.Cards)
		if err != nil {
			return nil, err
		}
		cost, err := normTerm(v.Cost)
		if err != nil {
			return nil, err
		}
		return GlobalCardinalityWithCost{Terms: xs, Cards: cards, Table: v.Table, Cost: cost}, nil
	case Count:
		value, err := normTerm(v.Value)
		if err != nil {
			return nil, err
		}
		xs, err := normTerms(v.Terms)
		if err != nil {
			return nil, err
		}
		bound, err := normTerm(v.Bound)
		if err != nil {
			return nil, err
		}
		return Count{Value: value, Terms: xs, Cmp: v.Cmp, Bound: bound}, nil
	}
	return nil, fmt.Errorf("unexpected constraint type %T", c)
}

func normConstraints(xs []Constraint) ([]Constraint, error) {
	if xs == nil {
		return nil, nil
	}
	out := make([]Constraint, len(xs))
	for i, x := range xs {
		n, err := normConstraint(x)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func normConstraintPair(x, y Constraint) (Constraint, Constraint, error) {
	nx, err := normConstraint(x)
	if err != nil {
		return nil, nil, err
	}
	ny, err := normConstraint(y)
	if err != nil {
		return nil, nil, err
	}
	return nx, ny, nil
}

func normCards(cards []Cardinality) ([]Cardinality, error) {
	if cards == nil {
		return nil, nil
	}
	out := make([]Cardinality, len(cards))
	for i, card := range cards {
		count, err := normTerm(card.Count)
		if err != nil {
			return nil, err
		}
		out[i] = Cardinality{Value: card.Value, Count: count}
	}
	return out, nil
}
