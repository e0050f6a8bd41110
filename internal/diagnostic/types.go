package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"mirror-generator/internal/common"
)

// Diagnostic codes.
const (
	CodeDuplicateNode       = "duplicate_node"
	CodeUnknownToken        = "unknown_token"
	CodeUnresolvedRef       = "unresolved_ref"
	CodeOpaqueRef           = "opaque_ref"
	CodeExcludedRef         = "excluded_ref"
	CodeMultiPayload        = "multi_payload"
	CodeMalformed           = "malformed_schema"
	CodeOverrideMissing     = "override_target_missing"
	CodeOverrideShape       = "override_shape_mismatch"
	CodeUnsupportedType     = "unsupported_type"
	CodeTupleTopLevel       = "tuple_top_level"
	CodeNestedOptional      = "nested_optional"
	CodeNameCollision       = "name_collision"
	CodeCatchAllCollision   = "catch_all_collision"
	CodeEmptyStruct         = "empty_struct"
	CodeOriginalMismatch    = "original_mismatch"
	CodeOriginalMissingType = "original_missing_type"
)

// Diagnostics holds all diagnostic information from one generation run.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Node names the schema node this relates to (if any).
	Node string
	// Member names the field or variant this relates to (if any).
	Member string
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, node, member string) {
	d.Errors = append(d.Errors, Diagnostic{
		Severity: DiagnosticError,
		Code:     code,
		Message:  message,
		Node:     node,
		Member:   member,
	})
}

// Errorf adds an error diagnostic with a formatted message.
func (d *Diagnostics) Errorf(code, node, member, format string, args ...any) {
	d.AddError(code, fmt.Sprintf(format, args...), node, member)
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, node, member string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity: DiagnosticWarning,
		Code:     code,
		Message:  message,
		Node:     node,
		Member:   member,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, node, member string) {
	d.Infos = append(d.Infos, Diagnostic{
		Severity: DiagnosticInfo,
		Code:     code,
		Message:  message,
		Node:     node,
		Member:   member,
	})
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}

	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// Codes returns the codes of all error diagnostics, in order.
func (d *Diagnostics) Codes() []string {
	codes := make([]string, 0, len(d.Errors))
	for _, e := range d.Errors {
		codes = append(codes, e.Code)
	}

	return codes
}

// Error returns a combined error from all error diagnostics, or nil if valid.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	var parts []string
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return &Error{Diagnostics: d, msg: strings.Join(parts, "; ")}
}

// Error is the error returned by Diagnostics.Error. It keeps the full
// diagnostic list reachable through errors.As.
type Error struct {
	Diagnostics *Diagnostics
	msg         string
}

func (e *Error) Error() string { return e.msg }

// AsDiagnostics extracts the diagnostics carried by err, if any.
func AsDiagnostics(err error) (*Diagnostics, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Diagnostics, true
	}

	return nil, false
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix string

	switch {
	case d.Node != "" && d.Member != "":
		prefix = d.Node + "." + d.Member
	case d.Node != "":
		prefix = d.Node
	case d.Member != "":
		prefix = d.Member
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if prefix != "" {
		return prefix + ": " + msg
	}

	return msg
}
