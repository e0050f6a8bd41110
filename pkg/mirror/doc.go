// Package mirror is the runtime support of generated mirror code: mapping
// helpers, the externally tagged enum encoding, reconstruction errors and
// layout checks.
//
// Projection helpers never fail. Reconstruction helpers return
// *ReconstructionError values that wrap the node and field path at which
// the mirror turned out to be inconsistent.
package mirror
