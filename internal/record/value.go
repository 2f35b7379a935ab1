package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a sealed interface over the summary/config value kinds.
// Only Number, Text, Bool, Null and Other implement it.
type Value interface {
	value() // Sealed
}

// Number is an integer or float scalar. Integer records whether the source
// literal had no fraction or exponent; I then holds the exact value, since
// V cannot represent integers beyond 2^53. V is always set and is what
// comparisons use.
type Number struct {
	V       float64
	Integer bool
	I       int64
}

func (Number) value() {}

// Text is a string value.
type Text string

func (Text) value() {}

// Bool is a boolean value. Booleans are never numeric.
type Bool bool

func (Bool) value() {}

// Null is an explicit null.
type Null struct{}

func (Null) value() {}

// Other holds anything else: nested objects, arrays, non-finite numbers.
// Raw is the decoded Go value (maps, slices, json.Number, float64).
type Other struct {
	Raw any
}

func (Other) value() {}

// Int creates an integer Number.
func Int(n int64) Number {
	return Number{V: float64(n), Integer: true, I: n}
}

// Float creates a float Number.
func Float(f float64) Number {
	return Number{V: f}
}

// Values maps keys to tagged values.
type Values map[string]Value

// AsFloat returns the numeric value of v. Only Number qualifies.
func AsFloat(v Value) (float64, bool) {
	n, ok := v.(Number)
	if !ok {
		return 0, false
	}
	return n.V, true
}

// DecodeValue classifies a decoded Go value into the tagged union.
// It accepts the shapes produced by encoding/json (with or without
// UseNumber) and gopkg.in/yaml.v3.
func DecodeValue(raw any) Value {
	switch val := raw.(type) {
	case nil:
		return Null{}
	case Value:
		return val
	case string:
		return Text(val)
	case bool:
		return Bool(val)
	case json.Number:
		return decodeNumber(string(val))
	case float64:
		return finiteOrOther(val, raw)
	case float32:
		return finiteOrOther(float64(val), raw)
	case int:
		return Int(int64(val))
	case int64:
		return Int(val)
	case int32:
		return Int(int64(val))
	case uint64:
		if val > math.MaxInt64 {
			return Float(float64(val))
		}
		return Int(int64(val))
	default:
		return Other{Raw: raw}
	}
}

// DecodeValues classifies every entry of m.
func DecodeValues(m map[string]any) Values {
	out := make(Values, len(m))
	for k, v := range m {
		out[k] = DecodeValue(v)
	}
	return out
}

func decodeNumber(lit string) Value {
	if !strings.ContainsAny(lit, ".eE") {
		if n, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return Int(n)
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Other{Raw: json.Number(lit)}
	}
	return finiteOrOther(f, json.Number(lit))
}

func finiteOrOther(f float64, raw any) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Other{Raw: raw}
	}
	return Float(f)
}

// UnmarshalJSON decodes an object into tagged values, keeping integer
// literals distinguishable from floats.
func (vals *Values) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*vals = DecodeValues(raw)
	return nil
}

// MarshalJSON encodes values as canonical JSON.
func (vals Values) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(vals)
}

// Stringify returns the stable text form of v, used to decide whether two
// config values differ and for text rendering.
func Stringify(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case Number:
		return formatNumber(val)
	case Text:
		return string(val)
	case Bool:
		if val {
			return "true"
		}
		return "false"
	case Other:
		b, err := MarshalCanonical(val.Raw)
		if err != nil {
			return fmt.Sprintf("%v", val.Raw)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FormatMetric renders a metric for tables: floats with six decimals,
// integers verbatim.
func FormatMetric(v Value) string {
	if n, ok := v.(Number); ok && !n.Integer {
		return strconv.FormatFloat(n.V, 'f', 6, 64)
	}
	return Stringify(v)
}

func formatNumber(n Number) string {
	if n.Integer {
		return strconv.FormatInt(n.I, 10)
	}
	return formatFloat(n.V)
}

// formatFloat produces the shortest round-trip representation, switching to
// exponent form outside [1e-6, 1e21) like ECMAScript number serialization.
func formatFloat(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
