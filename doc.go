// Package icall enables "indirect call auditing", a static analysis
// for taking a census of call sites whose target is unknown until
// runtime, and whether an existing mechanism already accounts for them.
//
// Each indirect call is classified as covered by devirtualization,
// covered by profile-guided promotion, exercised but uncovered, or
// never observed executing. Coverage is recognized from the names of
// the basic blocks the call lives in, and execution from profiling data.
//
// The analysis is pure: it only reads the program representation, which
// is supplied through the small interfaces in this package (see the ssair
// package for Go SSA).
package icall
