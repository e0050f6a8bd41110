// Package punct holds the container shapes of the original syntax tree
// that have no direct Go equivalent: delimited sequences and fixed tuples.
package punct
