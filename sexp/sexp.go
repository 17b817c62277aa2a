// Package sexp defines the S-expression values the translator emits:
// symbol and integer atoms, and nested lists. The textual form follows the
// Sugar CSP description syntax, e.g. (int x 0 7) or (add x y).
package sexp

import (
	"strconv"
	"strings"
)

// SExp is a node of an S-expression tree: a Symbol, an Int or a List.
type SExp interface {
	String() string

	write(sb *strings.Builder)
}

// Symbol is a bare identifier or keyword atom.
type Symbol string

// Int is an integer literal atom.
type Int int64

// List is a parenthesized sequence of nodes.
type List []SExp

func (s Symbol) String() string { return string(s) }

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

func (l List) String() string {
	var sb strings.Builder
	l.write(&sb)
	return sb.String()
}

func (s Symbol) write(sb *strings.Builder) { sb.WriteString(string(s)) }

func (i Int) write(sb *strings.Builder) { sb.WriteString(i.String()) }

func (l List) write(sb *strings.Builder) {
	sb.WriteByte('(')
	for i, e := range l {
		if i > 0 {
			sb.WriteByte(' ')
		}
		e.write(sb)
	}
	sb.WriteByte(')')
}
