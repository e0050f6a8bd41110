// Package exceptions holds the hand-curated override tables consulted while
// classifying schema fields: renames, flattening, omission predicates,
// passthrough eligibility, fixed variant spellings, layout consistency
// rules and the bindings for foreign and primitive types.
//
// Tables are loaded from YAML. Default returns the built-in table for
// syn-shaped schemas.
package exceptions
