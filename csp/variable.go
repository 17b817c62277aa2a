package csp

import (
	"strconv"
	"strings"
)

// Var is an integer decision variable. Identity is structural: two Var
// values with equal Name and Index denote the same logical variable,
// regardless of how they were constructed. Aux marks store-generated
// anonymous variables and takes no part in identity.
type Var struct {
	Name  string
	Index []string
	Aux   bool
}

// NewVar returns the integer variable name(index...).
func NewVar(name string, index ...string) Var {
	return Var{Name: name, Index: index}
}

func (v Var) String() string { return displayName(v.Name, v.Index) }

func (v Var) key() string { return identityKey(v.Name, v.Index) }

// Eval looks the variable up in s.
func (v Var) Eval(s Solution) (int64, error) { return s.IntValue(v) }

func (v Var) collect(r *refs) { r.addVar(v) }

// Bool is a boolean decision variable, with the same identity rules as Var.
type Bool struct {
	Name  string
	Index []string
	Aux   bool
}

// NewBool returns the boolean variable name(index...).
func NewBool(name string, index ...string) Bool {
	return Bool{Name: name, Index: index}
}

func (b Bool) String() string { return displayName(b.Name, b.Index) }

func (b Bool) key() string { return identityKey(b.Name, b.Index) }

// Eval looks the variable up in s.
func (b Bool) Eval(s Solution) (bool, error) { return s.BoolValue(b) }

func (b Bool) collect(r *refs) { r.addBool(b) }

func displayName(name string, index []string) string {
	if len(index) == 0 {
		return name
	}
	return name + "(" + strings.Join(index, ",") + ")"
}

// identityKey builds an injective map key from a variable's name and index
// sequence. Var and Bool are not comparable (Index is a slice), so every map
// keyed by variable identity goes through this.
func identityKey(name string, index []string) string {
	var sb strings.Builder
	sb.WriteString(strconv.Quote(name))
	for _, ix := range index {
		sb.WriteByte(' ')
		sb.WriteString(strconv.Quote(ix))
	}
	return sb.String()
}

// refs accumulates the free variables of an expression tree, deduplicated,
// in first-appearance order.
type refs struct {
	vars  []Var
	bools []Bool
	seenV map[string]struct{}
	seenB map[string]struct{}
}

func newRefs() *refs {
	return &refs{
		seenV: make(map[string]struct{}),
		seenB: make(map[string]struct{}),
	}
}

func (r *refs) addVar(v Var) {
	k := v.key()
	if _, ok := r.seenV[k]; ok {
		return
	}
	r.seenV[k] = struct{}{}
	r.vars = append(r.vars, v)
}

func (r *refs) addBool(b Bool) {
	k := b.key()
	if _, ok := r.seenB[k]; ok {
		return
	}
	r.seenB[k] = struct{}{}
	r.bools = append(r.bools, b)
}

func collectTerms(r *refs, xs []Term) {
	for _, x := range xs {
		if x != nil {
			x.collect(r)
		}
	}
}
