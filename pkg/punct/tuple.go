package punct

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Tuple2 is a fixed pair. It serializes as a two-element JSON array.
type Tuple2[A, B any] struct {
	V0 A
	V1 B
}

// Tuple3 is a fixed triple. It serializes as a three-element JSON array.
type Tuple3[A, B, C any] struct {
	V0 A
	V1 B
	V2 C
}

// MarshalJSON encodes the pair as [V0, V1].
func (t Tuple2[A, B]) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.V0, t.V1})
}

// UnmarshalJSON decodes [V0, V1].
func (t *Tuple2[A, B]) UnmarshalJSON(data []byte) error {
	items, err := splitArray(data, 2)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(items[0], &t.V0); err != nil {
		return fmt.Errorf("tuple item 0: %w", err)
	}

	if err := json.Unmarshal(items[1], &t.V1); err != nil {
		return fmt.Errorf("tuple item 1: %w", err)
	}

	return nil
}

// MarshalJSON encodes the triple as [V0, V1, V2].
func (t Tuple3[A, B, C]) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.V0, t.V1, t.V2})
}

// UnmarshalJSON decodes [V0, V1, V2].
func (t *Tuple3[A, B, C]) UnmarshalJSON(data []byte) error {
	items, err := splitArray(data, 3)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(items[0], &t.V0); err != nil {
		return fmt.Errorf("tuple item 0: %w", err)
	}

	if err := json.Unmarshal(items[1], &t.V1); err != nil {
		return fmt.Errorf("tuple item 1: %w", err)
	}

	if err := json.Unmarshal(items[2], &t.V2); err != nil {
		return fmt.Errorf("tuple item 2: %w", err)
	}

	return nil
}

func splitArray(data []byte, n int) ([]json.RawMessage, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, fmt.Errorf("expected a %d-element array, got null", n)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}

	if len(items) != n {
		return nil, fmt.Errorf("expected a %d-element array, got %d elements", n, len(items))
	}

	return items, nil
}
