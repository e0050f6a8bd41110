// Package roundtrip checks the conversion recipes of a plan without
// compiling generated code.
//
// Original values and mirror values are represented dynamically. The
// Interpreter applies the same recipes the generator emits, Synth builds
// random original values from the schema, and Checker verifies that
// rebuilding a projection yields the original value again, modulo the
// source positions a mirror drops.
package roundtrip
