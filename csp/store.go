package csp

import (
	"fmt"

	"github.com/sequencer/copris/debug"
)

// Direction selects what an objective does with its variable.
type Direction uint8

const (
	Minimize Direction = iota + 1
	Maximize
)

func (d Direction) String() string {
	switch d {
	case Minimize:
		return "minimize"
	case Maximize:
		return "maximize"
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// checkpoint records committed collection sizes. Cancel truncates back to
// it, Commit advances it.
type checkpoint struct {
	variables   int
	bools       int
	constraints int
}

// Store accumulates a CSP model: declared variables with their domains,
// constraints over them and an optional optimization objective. Everything
// appended since the last Commit can be rolled back with Cancel, and read
// out separately through the delta accessors, so a caller can speculatively
// extend an accepted model and lower only the extension.
//
// A Store is the sole owner of declaration order; the translator emits in
// exactly this order. It is not safe for concurrent use.
type Store struct {
	variables     []Var
	bools         []Bool
	domains       map[string]Domain
	declaredBools map[string]struct{}
	constraints   []Constraint

	objective    Var
	direction    Direction
	hasObjective bool

	mark checkpoint

	auxInts  int
	auxBools int
}

// Option configures a Store at construction.
type Option func(*Store)

// WithCapacity pre-sizes the store's collections for a model of about n
// declarations and n constraints.
func WithCapacity(n int) Option {
	return func(s *Store) {
		s.variables = make([]Var, 0, n)
		s.bools = make([]Bool, 0, n)
		s.constraints = make([]Constraint, 0, n)
	}
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		domains:       make(map[string]Domain),
		declaredBools: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DeclareInt registers v as an integer variable ranging over d.
func (s *Store) DeclareInt(v Var, d Domain) error {
	if err := validateDomain(d); err != nil {
		return fmt.Errorf("declare %s: %w", v, err)
	}
	k := v.key()
	if _, dup := s.domains[k]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateDeclaration, v)
	}
	s.domains[k] = d
	s.variables = append(s.variables, v)
	return nil
}

// DeclareBool registers b as a boolean variable.
func (s *Store) DeclareBool(b Bool) error {
	k := b.key()
	if _, dup := s.declaredBools[k]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateDeclaration, b)
	}
	s.declaredBools[k] = struct{}{}
	s.bools = append(s.bools, b)
	return nil
}

// Add appends the given constraints, in order. Every variable occurring
// free in the batch must already be declared; otherwise nothing is appended
// and the returned UndeclaredVariableError names the complete offending
// set.
func (s *Store) Add(cs ...Constraint) error {
	r := newRefs()
	for _, c := range cs {
		if c == nil {
			return fmt.Errorf("nil constraint")
		}
		c.collect(r)
	}
	var missing []string
	for _, v := range r.vars {
		if _, ok := s.domains[v.key()]; !ok {
			missing = append(missing, v.String())
		}
	}
	for _, b := range r.bools {
		if _, ok := s.declaredBools[b.key()]; !ok {
			missing = append(missing, b.String())
		}
	}
	if len(missing) > 0 {
		return &UndeclaredVariableError{Names: missing}
	}
	s.constraints = append(s.constraints, cs...)
	return nil
}

// SetObjective makes v the objective variable, replacing any previous
// objective. v must be a declared integer variable.
func (s *Store) SetObjective(v Var, dir Direction) error {
	if dir != Minimize && dir != Maximize {
		return fmt.Errorf("invalid objective direction %d", uint8(dir))
	}
	if _, ok := s.domains[v.key()]; !ok {
		return &UndeclaredVariableError{Names: []string{v.String()}}
	}
	s.objective = v
	s.direction = dir
	s.hasObjective = true
	return nil
}

// Minimize makes v the objective, to be minimized.
func (s *Store) Minimize(v Var) error { return s.SetObjective(v, Minimize) }

// Maximize makes v the objective, to be maximized.
func (s *Store) Maximize(v Var) error { return s.SetObjective(v, Maximize) }

// Objective returns the objective variable and direction, if one was set.
func (s *Store) Objective() (Var, Direction, bool) {
	return s.objective, s.direction, s.hasObjective
}

// Commit advances the checkpoint to the current sizes, accepting everything
// declared so far.
func (s *Store) Commit() {
	s.mark = checkpoint{
		variables:   len(s.variables),
		bools:       len(s.bools),
		constraints: len(s.constraints),
	}
}

// Cancel truncates variables, bools and constraints back to the last
// checkpoint. The objective is left as is, even if it was set since.
func (s *Store) Cancel() {
	debug.Assert(s.mark.variables <= len(s.variables), "checkpoint beyond store size")
	for _, v := range s.variables[s.mark.variables:] {
		delete(s.domains, v.key())
	}
	s.variables = s.variables[:s.mark.variables]
	for _, b := range s.bools[s.mark.bools:] {
		delete(s.declaredBools, b.key())
	}
	s.bools = s.bools[:s.mark.bools]
	s.constraints = s.constraints[:s.mark.constraints]
}

// Reset empties the store completely: declarations, constraints, objective
// and checkpoint. Anonymous-variable counters keep running so names never
// repeat within one store instance.
func (s *Store) Reset() {
	s.variables = nil
	s.bools = nil
	s.constraints = nil
	s.domains = make(map[string]Domain)
	s.declaredBools = make(map[string]struct{})
	s.objective = Var{}
	s.direction = 0
	s.hasObjective = false
	s.mark = checkpoint{}
}

// Variables returns all declared integer variables in declaration order.
func (s *Store) Variables() []Var { return s.variables }

// Bools returns all declared boolean variables in declaration order.
func (s *Store) Bools() []Bool { return s.bools }

// Constraints returns all added constraints in insertion order.
func (s *Store) Constraints() []Constraint { return s.constraints }

// VariablesDelta returns the integer variables declared since the last
// checkpoint. The returned slice is a view, valid until the next mutation.
func (s *Store) VariablesDelta() []Var { return s.variables[s.mark.variables:] }

// BoolsDelta returns the boolean variables declared since the last
// checkpoint.
func (s *Store) BoolsDelta() []Bool { return s.bools[s.mark.bools:] }

// ConstraintsDelta returns the constraints added since the last checkpoint.
func (s *Store) ConstraintsDelta() []Constraint { return s.constraints[s.mark.constraints:] }

// DomainOf returns the domain v was declared with.
func (s *Store) DomainOf(v Var) (Domain, bool) {
	d, ok := s.domains[v.key()]
	return d, ok
}

// GetNbVariables returns the number of declared integer variables.
func (s *Store) GetNbVariables() int { return len(s.variables) }

// GetNbBools returns the number of declared boolean variables.
func (s *Store) GetNbBools() int { return len(s.bools) }

// GetNbConstraints returns the number of added constraints.
func (s *Store) GetNbConstraints() int { return len(s.constraints) }

// IsSatisfiedBy reports whether sol assigns every declared integer variable
// a value inside its domain and makes every constraint hold.
func (s *Store) IsSatisfiedBy(sol Solution) (bool, error) {
	for _, v := range s.variables {
		value, err := sol.IntValue(v)
		if err != nil {
			return false, err
		}
		if !s.domains[v.key()].Contains(value) {
			return false, nil
		}
	}
	for i, c := range s.constraints {
		ok, err := c.Eval(sol)
		if err != nil {
			return false, fmt.Errorf("constraint %d: %w", i, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// AuxInt declares a fresh anonymous integer variable over d. Generated
// names never repeat within a store, even across Cancel or Reset.
func (s *Store) AuxInt(d Domain) (Var, error) {
	s.auxInts++
	v := Var{Name: fmt.Sprintf("_I%d", s.auxInts), Aux: true}
	if err := s.DeclareInt(v, d); err != nil {
		return Var{}, err
	}
	return v, nil
}

// AuxBool declares a fresh anonymous boolean variable.
func (s *Store) AuxBool() (Bool, error) {
	s.auxBools++
	b := Bool{Name: fmt.Sprintf("_B%d", s.auxBools), Aux: true}
	if err := s.DeclareBool(b); err != nil {
		return Bool{}, err
	}
	return b, nil
}

// Int declares the integer variable name(index...) over d and returns it.
func (s *Store) Int(name string, d Domain, index ...string) (Var, error) {
	v := NewVar(name, index...)
	if err := s.DeclareInt(v, d); err != nil {
		return Var{}, err
	}
	return v, nil
}

// IntRange declares the integer variable name(index...) over {lo, ..., hi}
// and returns it.
func (s *Store) IntRange(name string, lo, hi int64, index ...string) (Var, error) {
	d, err := NewInterval(lo, hi)
	if err != nil {
		return Var{}, fmt.Errorf("declare %s: %w", displayName(name, index), err)
	}
	return s.Int(name, d, index...)
}

// BoolVar declares the boolean variable name(index...) and returns it.
func (s *Store) BoolVar(name string, index ...string) (Bool, error) {
	b := NewBool(name, index...)
	if err := s.DeclareBool(b); err != nil {
		return Bool{}, err
	}
	return b, nil
}
