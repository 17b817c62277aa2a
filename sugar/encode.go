package sugar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sequencer/copris/csp"
	"github.com/sequencer/copris/sexp"
)

// punctuation kept verbatim by escapeComponent, besides letters, digits,
// underscore and code points >= 0x80.
const passPunct = "+-*/%=<>!&|"

// VarName returns the IR identifier for v. Identical variables map to the
// identical identifier for the lifetime of the translator.
func (t *Translator) VarName(v csp.Var) string {
	return string(t.intern(v.Name, v.Index))
}

// BoolName returns the IR identifier for b.
func (t *Translator) BoolName(b csp.Bool) string {
	return string(t.intern(b.Name, b.Index))
}

func (t *Translator) varName(v csp.Var) sexp.Symbol { return t.intern(v.Name, v.Index) }

func (t *Translator) boolName(b csp.Bool) sexp.Symbol { return t.intern(b.Name, b.Index) }

func (t *Translator) intern(name string, index []string) sexp.Symbol {
	k := memoKey(name, index)
	if m, ok := t.names[k]; ok {
		return sexp.Symbol(m)
	}
	m := mangle(name, index)
	t.names[k] = m
	return sexp.Symbol(m)
}

// mangle builds the IR identifier for a variable: the name and each index,
// escaped component by component, joined with '.'. The separator is outside
// both the pass-through set and the escape output alphabet, so distinct
// (name, index) pairs always mangle to distinct identifiers.
func mangle(name string, index []string) string {
	if len(index) == 0 {
		return escapeComponent(name)
	}
	parts := make([]string, 0, 1+len(index))
	parts = append(parts, escapeComponent(name))
	for _, ix := range index {
		parts = append(parts, escapeComponent(ix))
	}
	return strings.Join(parts, ".")
}

func escapeComponent(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '_' || r >= 0x80 ||
			('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') ||
			strings.ContainsRune(passPunct, r):
			sb.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&sb, "$%02x", r)
		default:
			fmt.Fprintf(&sb, "$%04x", r)
		}
	}
	return sb.String()
}

// memoKey is the cache key for a variable identity; unlike mangle it need
// not be a legal IR identifier, only injective.
func memoKey(name string, index []string) string {
	var sb strings.Builder
	sb.WriteString(strconv.Quote(name))
	for _, ix := range index {
		sb.WriteByte(' ')
		sb.WriteString(strconv.Quote(ix))
	}
	return sb.String()
}
