package sugar

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/sequencer/copris/csp"
	"github.com/sequencer/copris/sexp"
)

// ErrUnsupportedArity is returned when a tuple argument of a global
// constraint has an arity outside 2..4.
var ErrUnsupportedArity = errors.New("unsupported tuple arity")

// anyExpr lowers the heterogeneous argument shapes global constraints
// carry: integers and strings become atoms, terms and constraints recurse
// through their translators, slices become lists, and structs of 2 to 4
// fields become tuple lists. A nil term slot (an unspecified cumulative
// task bound) becomes the nil atom.
func (t *Translator) anyExpr(v any) (sexp.SExp, error) {
	switch x := v.(type) {
	case nil:
		return sexp.Symbol("nil"), nil
	case int:
		return sexp.Int(x), nil
	case int64:
		return sexp.Int(x), nil
	case string:
		return sexp.Symbol(x), nil
	case csp.Term:
		return t.term(x)
	case csp.Constraint:
		return t.constraint(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		list := make(sexp.List, rv.Len())
		for i := range rv.Len() {
			e, err := t.anyExpr(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			list[i] = e
		}
		return list, nil
	case reflect.Struct:
		n := rv.NumField()
		if n < 2 || n > 4 {
			return nil, fmt.Errorf("%w: %T has %d fields", ErrUnsupportedArity, v, n)
		}
		list := make(sexp.List, n)
		for i := range n {
			f := rv.Field(i)
			if !f.CanInterface() {
				return nil, fmt.Errorf("cannot lower unexported field %s of %T", rv.Type().Field(i).Name, v)
			}
			e, err := t.anyExpr(f.Interface())
			if err != nil {
				return nil, err
			}
			list[i] = e
		}
		return list, nil
	}
	return nil, fmt.Errorf("cannot lower %T into IR", v)
}
