package mirror

// Layout is the terminator discipline of a structural variant.
type Layout int

const (
	// LayoutRecord is never followed by a terminator.
	LayoutRecord Layout = iota + 1
	// LayoutTuple is always followed by a terminator.
	LayoutTuple
	// LayoutEmpty is always followed by a terminator.
	LayoutEmpty
)

// String returns a human-readable representation of the Layout.
func (l Layout) String() string {
	switch l {
	case LayoutRecord:
		return "record"
	case LayoutTuple:
		return "tuple"
	case LayoutEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// CheckLayout verifies that the terminator of node agrees with its layout.
func CheckLayout(node string, layout Layout, terminated bool) error {
	switch layout {
	case LayoutRecord:
		if terminated {
			return Inconsistent(node, "%s layout must not be terminated", layout)
		}
	case LayoutTuple, LayoutEmpty:
		if !terminated {
			return Inconsistent(node, "%s layout must be terminated", layout)
		}
	default:
		return Inconsistent(node, "unknown layout %d", int(layout))
	}

	return nil
}

// CheckBody verifies that exactly one of a body and a terminator is
// present.
func CheckBody(node string, hasBody, terminated bool) error {
	switch {
	case hasBody && terminated:
		return Inconsistent(node, "body must not be terminated")
	case !hasBody && !terminated:
		return Inconsistent(node, "missing body must be terminated")
	default:
		return nil
	}
}
