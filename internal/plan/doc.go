// Package plan provides the planning pipeline that produces a Plan
// consumed by code generation and the round-trip checker.
//
// Planning pipeline:
//  1. Validate the schema and the exception tables
//  2. Classify every field type and variant payload
//  3. For each struct node:
//     - Apply field overrides (rename, flatten, omit)
//     - Derive JSON names and detect collisions
//     - Decide passthrough
//  4. For each enum node: variant names, kind numbering, catch-all
//  5. Emit diagnostics; any error means nothing is generated
package plan
