package can

import (
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Value is a decoded signal value. Number always holds the scaled numeric
// value; Label is set when the raw value was mapped to a choice name.
type Value struct {
	Number float64
	Label  string
}

// NumberValue returns a plain numeric value.
func NumberValue(n float64) Value {
	return Value{Number: n}
}

// LabelValue returns a choice label backed by its numeric value.
func LabelValue(n float64, label string) Value {
	return Value{Number: n, Label: label}
}

// IsLabel reports whether the value decodes to a choice label.
func (v Value) IsLabel() bool {
	return v.Label != ""
}

// String returns the label if present, otherwise the formatted number.
func (v Value) String() string {
	if v.IsLabel() {
		return v.Label
	}
	return strconv.FormatFloat(v.Number, 'g', -1, 64)
}

// MarshalJSON encodes labels as JSON strings and numbers as JSON numbers.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsLabel() {
		return json.Marshal(v.Label)
	}
	return json.Marshal(v.Number)
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (v *Value) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*v = Value{Label: label}
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = Value{Number: n}
	return nil
}
