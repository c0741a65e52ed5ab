// Package callgraphutil restricts an audit to the part of a program that
// its entry points can reach, using call graphs built by
// golang.org/x/tools/go/callgraph.
package callgraphutil
