package models

import (
	"encoding/json"
	"fmt"
)

// Quantity is either a plain scalar or a bounded current/max gauge. The game
// renders both with the same cell template, so the shape is decided by the
// parser from text alone and carried through to serialization.
type Quantity struct {
	Value   float64
	Max     float64
	Bounded bool
}

// Scalar builds a plain-number quantity.
func Scalar(v float64) Quantity {
	return Quantity{Value: v}
}

// BoundedQuantity builds a current/max quantity.
func BoundedQuantity(current, max float64) Quantity {
	return Quantity{Value: current, Max: max, Bounded: true}
}

type boundedJSON struct {
	Current float64 `json:"current"`
	Max     float64 `json:"max"`
}

// MarshalJSON writes a bare number for scalars and a {current, max} object
// for bounded quantities.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.Bounded {
		return json.Marshal(boundedJSON{Current: q.Value, Max: q.Max})
	}
	return json.Marshal(q.Value)
}

// UnmarshalJSON accepts both shapes produced by MarshalJSON.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		*q = Scalar(scalar)
		return nil
	}
	var pair boundedJSON
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("quantity is neither number nor current/max object: %w", err)
	}
	*q = BoundedQuantity(pair.Current, pair.Max)
	return nil
}

func (q Quantity) String() string {
	if q.Bounded {
		return fmt.Sprintf("%g/%g", q.Value, q.Max)
	}
	return fmt.Sprintf("%g", q.Value)
}
