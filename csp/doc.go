// Package csp implements the CSP model layer: domains, integer and boolean
// variables, the Term and Constraint expression families with their
// evaluation semantics, and the transactional Store the sugar translator
// lowers from.
//
// Term and Constraint are closed variant sets. Expressions are plain
// immutable values; building them allocates no store state, only Store
// methods do.
package csp
