// Package copris provides a high level API to model Constraint Satisfaction
// Problems (CSP) and lower them to the S-expression intermediate
// representation consumed by the Sugar constraint compiler.
//
// A model is built in a csp.Store: integer and boolean variables with their
// domains, constraints over them and an optional optimization objective. The
// sugar package turns a store (or the uncommitted part of it) into an ordered
// sequence of sexp.SExp statements.
//
// copris does not solve anything itself; it stops at the IR boundary.
package copris

import (
	"github.com/blang/semver/v4"
)

var Version = semver.MustParse("0.1.0")
