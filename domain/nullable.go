package domain

import "encoding/json"

// Nullable records whether a JSON field was present at all (Set) and, if it
// was, whether it was null (Value == nil).
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func Some[T any](v T) Nullable[T] { return Nullable[T]{Set: true, Value: &v} }

func Null[T any]() Nullable[T] { return Nullable[T]{Set: true} }

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}
