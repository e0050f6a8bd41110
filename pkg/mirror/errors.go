package mirror

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies reconstruction failures.
type Kind int

const (
	// KindUnreachable marks a value preserved by a catch-all variant. It
	// has no original representation.
	KindUnreachable Kind = iota + 1
	// KindInconsistent marks a mirror that no original value projects to,
	// e.g. a missing payload or a layout contradicting its terminator.
	KindInconsistent
	// KindInvalidData marks mirror data that a textual conversion could
	// not parse, or a required value that is absent.
	KindInvalidData
)

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindInconsistent:
		return "inconsistent"
	case KindInvalidData:
		return "invalid_data"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against a *ReconstructionError of the
// corresponding Kind.
var (
	ErrUnreachable  = errors.New("unreachable")
	ErrInconsistent = errors.New("inconsistent")
	ErrInvalidData  = errors.New("invalid data")
)

// ReconstructionError reports why a mirror value could not be turned back
// into an original value.
type ReconstructionError struct {
	Kind Kind
	// Node is the node whose reconstruction failed.
	Node string
	// Path leads from the outermost node to the failure, e.g.
	// ["ItemFn.block", "Block.stmts[2]"].
	Path    []string
	Message string
	// Err is the underlying error of a failed textual conversion.
	Err error
}

func (e *ReconstructionError) Error() string {
	var sb strings.Builder

	if len(e.Path) > 0 {
		sb.WriteString(strings.Join(e.Path, " > "))
		sb.WriteString(": ")
	} else if e.Node != "" {
		sb.WriteString(e.Node)
		sb.WriteString(": ")
	}

	sb.WriteString(e.Message)

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

func (e *ReconstructionError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's Kind.
func (e *ReconstructionError) Is(target error) bool {
	switch e.Kind {
	case KindUnreachable:
		return target == ErrUnreachable
	case KindInconsistent:
		return target == ErrInconsistent
	case KindInvalidData:
		return target == ErrInvalidData
	default:
		return false
	}
}

// Unreachable reports a catch-all value of node.
func Unreachable(node string) error {
	return &ReconstructionError{
		Kind:    KindUnreachable,
		Node:    node,
		Message: "unknown variant has no original representation",
	}
}

// Inconsistent reports mirror data no original value projects to.
func Inconsistent(node, format string, args ...any) error {
	return &ReconstructionError{
		Kind:    KindInconsistent,
		Node:    node,
		Message: fmt.Sprintf(format, args...),
	}
}

// InvalidData reports mirror data that cannot be converted back.
func InvalidData(node, format string, args ...any) error {
	return &ReconstructionError{
		Kind:    KindInvalidData,
		Node:    node,
		Message: fmt.Sprintf(format, args...),
	}
}

// MissingPayload reports a payload variant whose payload is nil.
func MissingPayload(node, variant string) error {
	return Inconsistent(node, "variant %s has no payload", variant)
}

// WithField adds the node and field a failure happened in. Errors that
// are not reconstruction errors become KindInvalidData.
func WithField(err error, node, field string) error {
	if err == nil {
		return nil
	}

	return prepend(err, node, node+"."+field)
}

// WithIndex adds the sequence index a failure happened at. The index
// attaches to the field added by the next WithField.
func WithIndex(err error, i int) error {
	if err == nil {
		return nil
	}

	return prepend(err, "", "["+strconv.Itoa(i)+"]")
}

func prepend(err error, node, segment string) error {
	var re *ReconstructionError
	if !errors.As(err, &re) {
		return &ReconstructionError{
			Kind:    KindInvalidData,
			Node:    node,
			Path:    []string{segment},
			Message: "conversion failed",
			Err:     err,
		}
	}

	out := *re
	if out.Node == "" {
		out.Node = node
	}

	if len(out.Path) > 0 && strings.HasPrefix(out.Path[0], "[") {
		out.Path = append([]string{segment + out.Path[0]}, out.Path[1:]...)
	} else {
		out.Path = append([]string{segment}, out.Path...)
	}

	return &out
}
