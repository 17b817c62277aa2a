// Package sugar lowers a csp.Store into the S-expression statement sequence
// understood by the Sugar constraint-to-SAT compiler.
//
// Statement order is fixed: integer variable declarations, then boolean
// variable declarations, then the objective if one is set, then constraints,
// each group in store order. A Translator memoizes identifier mangling, so
// repeated lowering of a growing store (full or delta passes) yields
// identical identifiers for identical variables.
package sugar

import (
	"fmt"

	"github.com/sequencer/copris/csp"
	"github.com/sequencer/copris/logger"
	"github.com/sequencer/copris/sexp"
)

// Translator lowers stores into IR statements. The zero value is not
// usable; use NewTranslator. A Translator is not safe for concurrent use.
type Translator struct {
	names map[string]string
}

// NewTranslator returns a translator with an empty name cache.
func NewTranslator() *Translator {
	return &Translator{names: make(map[string]string)}
}

// Translate lowers the full contents of st.
func (t *Translator) Translate(st *csp.Store) ([]sexp.SExp, error) {
	return t.lower(st, st.Variables(), st.Bools(), st.Constraints(), true)
}

// TranslateDelta lowers only what st accumulated since its last checkpoint.
// The objective is never part of a delta.
func (t *Translator) TranslateDelta(st *csp.Store) ([]sexp.SExp, error) {
	return t.lower(st, st.VariablesDelta(), st.BoolsDelta(), st.ConstraintsDelta(), false)
}

func (t *Translator) lower(st *csp.Store, vars []csp.Var, bools []csp.Bool, constraints []csp.Constraint, withObjective bool) ([]sexp.SExp, error) {
	out := make([]sexp.SExp, 0, len(vars)+len(bools)+len(constraints)+1)
	for _, v := range vars {
		d, ok := st.DomainOf(v)
		if !ok {
			return nil, fmt.Errorf("variable %s has no domain", v)
		}
		decl, err := t.intDecl(v, d)
		if err != nil {
			return nil, err
		}
		out = append(out, decl)
	}
	for _, b := range bools {
		out = append(out, sexp.List{sexp.Symbol("bool"), t.boolName(b)})
	}
	if withObjective {
		if v, dir, ok := st.Objective(); ok {
			out = append(out, sexp.List{sexp.Symbol("objective"), sexp.Symbol(dir.String()), t.varName(v)})
		}
	}
	for _, c := range constraints {
		e, err := t.constraint(c)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	log := logger.With("translator")
	log.Debug().
		Int("nbVariables", len(vars)).
		Int("nbBools", len(bools)).
		Int("nbConstraints", len(constraints)).
		Int("nbStatements", len(out)).
		Msg("lowered store")
	return out, nil
}

func (t *Translator) intDecl(v csp.Var, d csp.Domain) (sexp.SExp, error) {
	name := t.varName(v)
	switch dom := d.(type) {
	case csp.Interval:
		return sexp.List{sexp.Symbol("int"), name, sexp.Int(dom.Lo), sexp.Int(dom.Hi)}, nil
	case csp.Set:
		values := make(sexp.List, len(dom.Values))
		for i, val := range dom.Values {
			values[i] = sexp.Int(val)
		}
		return sexp.List{sexp.Symbol("int"), name, values}, nil
	case csp.Enum:
		// enums live at the solver boundary as their index range
		return sexp.List{sexp.Symbol("int"), name, sexp.Int(0), sexp.Int(int64(len(dom.Values)) - 1)}, nil
	}
	return nil, fmt.Errorf("unknown domain type %T", d)
}

func (t *Translator) term(x csp.Term) (sexp.SExp, error) {
	switch v := x.(type) {
	case csp.Num:
		return sexp.Int(v), nil
	case csp.Var:
		return t.varName(v), nil
	case csp.Absolute:
		return t.apply("abs", v.X)
	case csp.Negate:
		return t.apply("neg", v.X)
	case csp.Sum:
		return t.apply("add", v.Terms...)
	case csp.Difference:
		return t.apply("sub", v.Terms...)
	case csp.Product:
		return t.apply("mul", v.Terms...)
	case csp.Quotient:
		return t.apply("div", v.X, v.Y)
	case csp.Remainder:
		return t.apply("mod", v.X, v.Y)
	case csp.Maximum:
		return t.apply("max", v.Terms...)
	case csp.Minimum:
		return t.apply("min", v.Terms...)
	case csp.Conditional:
		cond, err := t.constraint(v.Cond)
		if err != nil {
			return nil, err
		}
		then, err := t.term(v.Then)
		if err != nil {
			return nil, err
		}
		els, err := t.term(v.Else)
		if err != nil {
			return nil, err
		}
		return sexp.List{sexp.Symbol("if"), cond, then, els}, nil
	}
	return nil, fmt.Errorf("unknown term type %T", x)
}

func (t *Translator) constraint(c csp.Constraint) (sexp.SExp, error) {
	switch v := c.(type) {
	case csp.BoolConst:
		if v {
			return sexp.Symbol("true"), nil
		}
		return sexp.Symbol("false"), nil
	case csp.Bool:
		return t.boolName(v), nil
	case csp.Negation:
		inner, err := t.constraint(v.X)
		if err != nil {
			return nil, err
		}
		return sexp.List{sexp.Symbol("not"), inner}, nil
	case csp.Conjunction:
		return t.applyConstraints("and", v.Constraints)
	case csp.Disjunction:
		return t.applyConstraints("or", v.Constraints)
	case csp.Implication:
		return t.constraintPair("imp", v.X, v.Y)
	case csp.ExclusiveOr:
		return t.constraintPair("xor", v.X, v.Y)
	case csp.Equivalence:
		return t.constraintPair("iff", v.X, v.Y)
	case csp.Equal:
		return t.apply("eq", v.X, v.Y)
	case csp.NotEqual:
		return t.apply("ne", v.X, v.Y)
	case csp.LessEq:
		return t.apply("le", v.X, v.Y)
	case csp.LessThan:
		return t.apply("lt", v.X, v.Y)
	case csp.GreaterEq:
		return t.apply("ge", v.X, v.Y)
	case csp.GreaterThan:
		return t.apply("gt", v.X, v.Y)
	case csp.AllDifferent:
		return t.apply("alldifferent", v.Terms...)
	case csp.WeightedSum:
		if !v.Cmp.Valid() {
			return nil, fmt.Errorf("%w: %q", csp.ErrInvalidComparator, string(v.Cmp))
		}
		items, err := t.anyExpr(v.Items)
		if err != nil {
			return nil, err
		}
		bound, err := t.term(v.Bound)
		if err != nil {
			return nil, err
		}
		return sexp.List{sexp.Symbol("weightedsum"), items, sexp.Symbol(string(v.Cmp)), bound}, nil
	case csp.Cumulative:
		tasks, err := t.anyExpr(v.Tasks)
		if err != nil {
			return nil, err
		}
		limit, err := t.term(v.Limit)
		if err != nil {
			return nil, err
		}
		return sexp.List{sexp.Symbol("cumulative"), tasks, limit}, nil
	case csp.Element:
		index, err := t.term(v.Index)
		if err != nil {
			return nil, err
		}
		list, err := t.termList(v.List)
		if err != nil {
			return nil, err
		}
		value, err := t.term(v.Value)
		if err != nil {
			return nil, err
		}
		return sexp.List{sexp.Symbol("element"), index, list, value}, nil
	case csp.Disjunctive:
		tasks, err := t.anyExpr(v.Tasks)
		if err != nil {
			return nil, err
		}
		return sexp.List{sexp.Symbol("disjunctive"), tasks}, nil
	case csp.LexLess:
		return t.lexPair("lex_less", v.Xs, v.Ys)
	case csp.LexLessEq:
		return t.lexPair("lex_lesseq", v.Xs, v.Ys)
	case csp.Nvalue:
		count, err := t.term(v.Count)
		if err != nil {
			return nil, err
		}
		list, err := t.termList(v.Terms)
		if err != nil {
			return nil, err
		}
		return sexp.List{sexp.Symbol("nvalue"), count, list}, nil
	case csp.GlobalCardinality:
		list, err := t.termList(v.Terms)
		if err != nil {
			return nil, err
		}
		cards, err := t.anyExpr(v.Cards)
		if err != nil {
			return nil, err
		}
		return sexp.List{sexp.Symbol("global_cardinality"), list, cards}, nil
	case csp.GlobalCardinalityWithCost:
		list, err := t.termList(v.Terms)
		if err != nil {
			return nil, err
		}
		cards, err := t.anyExpr(v.Cards)
		if err != nil {
			return nil, err
		}
		table, err := t.anyExpr(v.Table)
		if err != nil {
			return nil, err
		}
		cost, err := t.term(v.Cost)
		if err != nil {
			return nil, err
		}
		return sexp.List{sexp.Symbol("global_cardinality_with_costs"), list, cards, table, cost}, nil
	case csp.Count:
		if !v.Cmp.Valid() {
			return nil, fmt.Errorf("%w: %q", csp.ErrInvalidComparator, string(v.Cmp))
		}
		value, err := t.term(v.Value)
		if err != nil {
			return nil, err
		}
		list, err := t.termList(v.Terms)
		if err != nil {
			return nil, err
		}
		bound, err := t.term(v.Bound)
		if err != nil {
			return nil, err
		}
		return sexp.List{sexp.Symbol("count"), value, list, sexp.Symbol(string(v.Cmp)), bound}, nil
	}
	return nil, fmt.Errorf("unknown constraint type %T", c)
}

// apply lowers (op x1 ... xn) over terms.
func (t *Translator) apply(op string, xs ...csp.Term) (sexp.SExp, error) {
	list := make(sexp.List, 0, 1+len(xs))
	list = append(list, sexp.Symbol(op))
	for _, x := range xs {
		e, err := t.term(x)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, nil
}

func (t *Translator) applyConstraints(op string, xs []csp.Constraint) (sexp.SExp, error) {
	list := make(sexp.List, 0, 1+len(xs))
	list = append(list, sexp.Symbol(op))
	for _, x := range xs {
		e, err := t.constraint(x)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, nil
}

func (t *Translator) constraintPair(op string, x, y csp.Constraint) (sexp.SExp, error) {
	a, err := t.constraint(x)
	if err != nil {
		return nil, err
	}
	b, err := t.constraint(y)
	if err != nil {
		return nil, err
	}
	return sexp.List{sexp.Symbol(op), a, b}, nil
}

func (t *Translator) termList(xs []csp.Term) (sexp.SExp, error) {
	list := make(sexp.List, len(xs))
	for i, x := range xs {
		e, err := t.term(x)
		if err != nil {
			return nil, err
		}
		list[i] = e
	}
	return list, nil
}

func (t *Translator) lexPair(op string, xs, ys []csp.Term) (sexp.SExp, error) {
	left, err := t.termList(xs)
	if err != nil {
		return nil, err
	}
	right, err := t.termList(ys)
	if err != nil {
		return nil, err
	}
	return sexp.List{sexp.Symbol(op), left, right}, nil
}
