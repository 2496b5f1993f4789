package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ValueKind tags which side of a Value is populated.
type ValueKind uint8

const (
	KindText ValueKind = iota
	KindNumber
)

// Value is a scraped cell: a number when the text parsed as one,
// otherwise the trimmed text itself.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
}

// Number returns a numeric Value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Text returns a textual Value.
func Text(s string) Value { return Value{Kind: KindText, Str: s} }

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool { return v.Kind == KindNumber }

// Float returns the numeric payload and whether v is numeric.
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

func (v Value) String() string {
	if v.Kind == KindNumber {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.Str
}

// MarshalJSON encodes numbers as JSON numbers and text as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == KindNumber {
		return json.Marshal(v.Num)
	}
	return json.Marshal(v.Str)
}

// UnmarshalJSON accepts a JSON number or string. Strings are kept as text
// without numeric coercion. A JSON null leaves v unchanged.
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = Text(s)
	return nil
}
