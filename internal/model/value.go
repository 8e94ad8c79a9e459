package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// ValueKind discriminates the raw shape of a loosely typed input field.
type ValueKind int

const (
	// Absent means the field was missing or null.
	Absent ValueKind = iota
	// Number means the field arrived as a JSON number.
	Number
	// Text means the field arrived as a string ("85%", "below average").
	Text
)

// Value is a loosely typed numeric input. Extraction output and manual
// entry carry numbers as JSON numbers, numeric strings with suffixes,
// or qualitative phrases; the raw shape is preserved until the row
// normalizer decides how to interpret it.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
}

// Num returns a numeric Value.
func Num(f float64) Value { return Value{Kind: Number, Num: f} }

// Str returns a textual Value.
func Str(s string) Value { return Value{Kind: Text, Str: s} }

// Present reports whether the field carried any value.
func (v Value) Present() bool { return v.Kind != Absent }

// UnmarshalJSON accepts a number, a string, or null.
func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*v = Value{Kind: Number, Num: f}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = Value{Kind: Text, Str: s}
		return nil
	}
	return eris.Errorf("model: value must be number, string, or null: %s", b)
}

// MarshalJSON round-trips the original shape.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case Number:
		return json.Marshal(v.Num)
	case Text:
		return json.Marshal(v.Str)
	default:
		return []byte("null"), nil
	}
}
