// Package diagnostic provides structured generation-time faults and warnings
// for the mirror generator.
//
// Every diagnostic carries a stable code plus the node and field (or
// variant) it relates to, so a schema defect can be located without reading
// generator internals. A run with any error diagnostic emits no output.
package diagnostic
