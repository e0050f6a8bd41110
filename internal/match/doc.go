// Package match suggests the closest known name for a misspelled schema
// identifier. Names are compared after normalization, so "item_fn",
// "ItemFn" and "itemfn" are equal.
package match
