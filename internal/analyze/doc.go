// Package analyze checks an original Go AST package against a plan.
//
// It loads the package with golang.org/x/tools/go/packages and compares
// every planned node with the declared Go type: struct fields by name and
// type, enum Kind fields and constants, and variant payload fields.
package analyze
