package direction

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	src := `
keywords: ["loss", "latency"]
metrics: {
	"custom_score":           "lower"
	"error_budget_remaining": "higher"
}
`
	c, err := ParsePolicy("policy.cue", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"loss", "latency"}, c.Keywords)
	assert.Equal(t, Lower, c.Overrides["custom_score"])
	assert.Equal(t, Higher, c.Overrides["error_budget_remaining"])
	assert.True(t, c.LowerIsBetter("custom_score"))
	assert.True(t, c.LowerIsBetter("p50_latency"))
	assert.False(t, c.LowerIsBetter("val/mse"))
}

func TestParsePolicy_Empty(t *testing.T) {
	c, err := ParsePolicy("policy.cue", []byte(""))
	require.NoError(t, err)
	assert.Nil(t, c.Keywords)
	assert.True(t, c.LowerIsBetter("val/loss"))
}

func TestParsePolicy_UnknownDirection(t *testing.T) {
	_, err := ParsePolicy("policy.cue", []byte(`metrics: { acc: "sideways" }`))
	require.Error(t, err)

	var pe *PolicyError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "metrics.acc", pe.Field)
	assert.Contains(t, pe.Message, "sideways")
}

func TestParsePolicy_SyntaxError(t *testing.T) {
	_, err := ParsePolicy("policy.cue", []byte(`metrics: {`))
	require.Error(t, err)

	var pe *PolicyError
	assert.True(t, errors.As(err, &pe))
}

func TestParsePolicy_BadKeywords(t *testing.T) {
	_, err := ParsePolicy("policy.cue", []byte(`keywords: [1, 2]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keywords")
}

func TestLoadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.cue")
	require.NoError(t, os.WriteFile(path, []byte(`metrics: { "val/acc": "max" }`), 0644))

	c, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, Higher, c.Overrides["val/acc"])

	_, err = LoadPolicy(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}
