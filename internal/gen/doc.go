// Package gen provides deterministic Go code generation for mirror types
// and their conversion functions.
//
// Generation approach uses text/template for the file skeleton and the
// binding snippets, string building for declarations, and go/format for
// the final layout. Unused imports are pruned with astutil before
// formatting.
//
// Output files:
//   - mirror_structs.go: one mirror struct per struct node
//   - mirror_enums.go: one externally tagged mirror enum per enum node
//   - mirror_convert.go: NToMirror (total) and NFromMirror (fallible)
package gen
