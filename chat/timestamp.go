package chat

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type stampKind uint8

const (
	stampNone stampKind = iota
	stampTime
	stampText
)

// Timestamp is either a structured point in time or a pre-formatted string.
// Pre-formatted strings are opaque: they are displayed as given and never
// parsed back into a time value.
type Timestamp struct {
	kind stampKind
	at   time.Time
	text string
}

// At wraps a structured time value.
func At(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{kind: stampTime, at: t}
}

// Text wraps an already formatted timestamp string.
func Text(s string) Timestamp {
	if s == "" {
		return Timestamp{}
	}
	return Timestamp{kind: stampText, text: s}
}

// IsZero reports whether no usable timestamp is present.
func (ts Timestamp) IsZero() bool { return ts.kind == stampNone }

// Time returns the structured value, if that is what ts holds.
func (ts Timestamp) Time() (time.Time, bool) {
	return ts.at, ts.kind == stampTime
}

// Preformatted returns the opaque string, if that is what ts holds.
func (ts Timestamp) Preformatted() (string, bool) {
	return ts.text, ts.kind == stampText
}

// UnmarshalJSON accepts a JSON string (pre-formatted, kept verbatim) or a
// JSON number of Unix milliseconds. Any other shape decodes to the zero
// Timestamp so one malformed message cannot fail a whole conversation.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	*ts = Timestamp{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*ts = Text(s)
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if ms, ok := parseMillis(string(data)); ok {
			*ts = At(time.UnixMilli(ms))
		}
	}
	return nil
}

// MarshalJSON writes text stamps as strings, time stamps as Unix
// milliseconds and the zero value as null.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	switch ts.kind {
	case stampText:
		return json.Marshal(ts.text)
	case stampTime:
		return []byte(strconv.FormatInt(ts.at.UnixMilli(), 10)), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalYAML keeps quoted and free-form strings verbatim. Scalars YAML
// itself resolves to !!timestamp become structured times; integers are
// Unix milliseconds.
func (ts *Timestamp) UnmarshalYAML(node *yaml.Node) error {
	*ts = Timestamp{}
	if node.Kind != yaml.ScalarNode {
		return nil
	}
	switch node.ShortTag() {
	case "!!timestamp":
		var t time.Time
		if err := node.Decode(&t); err == nil {
			*ts = At(t)
		}
	case "!!int", "!!float":
		if ms, ok := parseMillis(node.Value); ok {
			*ts = At(time.UnixMilli(ms))
		}
	case "!!str":
		*ts = Text(node.Value)
	}
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (ts Timestamp) MarshalYAML() (interface{}, error) {
	switch ts.kind {
	case stampText:
		return ts.text, nil
	case stampTime:
		return ts.at, nil
	default:
		return nil, nil
	}
}

func parseMillis(s string) (int64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	if f > float64(math.MaxInt64) {
		return 0, false
	}
	return int64(f), true
}
