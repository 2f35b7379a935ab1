package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"b": 1, "a": "x", "c": []any{true, nil}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":[true,null]}`, string(got))
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical("a<b>&c")
	require.NoError(t, err)
	assert.Equal(t, `"a<b>&c"`, string(got))
}

func TestMarshalCanonical_LineSeparators(t *testing.T) {
	got, err := MarshalCanonical("x\u2028y\u2029z")
	require.NoError(t, err)
	assert.Equal(t, "\"x\u2028y\u2029z\"", string(got))

	// A literal backslash followed by the text u2028 must stay escaped.
	got, err = MarshalCanonical(`x\u2028y`)
	require.NoError(t, err)
	assert.Equal(t, `"x\\u2028y"`, string(got))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	decomposed := "e\u0301"
	got, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(got))
}

func TestMarshalCanonical_Numbers(t *testing.T) {
	got, err := MarshalCanonical(Values{"i": Int(32), "f": Float(0.15), "g": Float(2.0), "tiny": Float(1e-7)})
	require.NoError(t, err)
	assert.Equal(t, `{"f":0.15,"g":2,"i":32,"tiny":1e-7}`, string(got))
}

func TestMarshalCanonical_RejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(Number{V: posInf()})
	assert.Error(t, err)
}

func TestMarshalCanonical_UnsupportedType(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	assert.Error(t, err)
}

func TestMarshalCanonical_Time(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	got, err := MarshalCanonical(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-01T11:00:00Z"`, string(got))
}

func TestMarshalCanonicalIndent(t *testing.T) {
	got, err := MarshalCanonicalIndent(map[string]any{"b": 1, "a": 2}, "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 2,\n  \"b\": 1\n}", string(got))
}

func TestSortedKeys_UTF16Order(t *testing.T) {
	// U+1F600 encodes as a surrogate pair (0xD83D...) which sorts before U+FFFD in UTF-16.
	keys := SortedKeys(map[string]int{"\uFFFD": 1, "\U0001F600": 2, "a": 3})
	assert.Equal(t, []string{"a", "\U0001F600", "\uFFFD"}, keys)
}

func TestSnapshotID_OrderIndependent(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := RunRecord{ID: "r1", Branch: "main", HasBranch: true, State: StateFinished, CreatedAt: t0, Summary: Values{"acc": Float(0.9)}}
	b := RunRecord{ID: "r2", State: StateRunning, CreatedAt: t0.Add(time.Hour), LastStep: -1}

	id1, err := SnapshotID([]RunRecord{a, b})
	require.NoError(t, err)
	id2, err := SnapshotID([]RunRecord{b, a})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 36)

	b.State = StateFinished
	id3, err := SnapshotID([]RunRecord{a, b})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}

func posInf() float64 {
	var zero float64
	return 1 / zero
}

func TestMarshalCanonical_NonFiniteOther(t *testing.T) {
	got, err := MarshalCanonical(Values{
		"a": DecodeValue(posInf()),
		"b": DecodeValue(-posInf()),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"Infinity","b":"-Infinity"}`, string(got))
}
