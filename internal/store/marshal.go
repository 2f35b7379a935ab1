package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/brancheval/internal/record"
)

// marshalValues converts values to canonical JSON TEXT for storage.
func marshalValues(vals record.Values) (string, error) {
	if vals == nil {
		vals = record.Values{}
	}
	data, err := record.MarshalCanonical(vals)
	if err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return string(data), nil
}

// unmarshalValues parses canonical JSON TEXT. Integer literals stay
// integers.
func unmarshalValues(data string) (record.Values, error) {
	if data == "" || data == "{}" {
		return record.Values{}, nil
	}
	var vals record.Values
	if err := json.Unmarshal([]byte(data), &vals); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	return vals, nil
}

func marshalStrings(s []string) (string, error) {
	if s == nil {
		s = []string{}
	}
	data, err := record.MarshalCanonical(s)
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return string(data), nil
}

func unmarshalStrings(data string) ([]string, error) {
	out := []string{}
	if data == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	return out, nil
}

// Timestamps are stored as UTC unix nanoseconds; 0 stands for unknown.
func encodeTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func decodeTime(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
