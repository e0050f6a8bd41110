// Package classify maps a field's declared type shape to its mirror type
// and a pair of conversion recipes.
//
// A Recipe is a small tree over a fixed vocabulary of operations (map over
// a sequence, map over an optional, recurse into a node, take presence,
// emit a placeholder, identity, textual conversion, ...). The projection
// and reconstruction directions are both read off the same tree, so code
// generators and the dynamic round-trip checker agree by construction.
//
// Classification is compositional: the rule for a composite type is built
// from the rules of its components.
package classify
