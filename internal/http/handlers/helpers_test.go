package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	t.Parallel()

	valid := map[string]uint{
		"7":    7,
		" 12 ": 12,
		"7.0":  7,
		"1e2":  100,
	}
	for raw, want := range valid {
		got, ok := parseID(raw)
		require.True(t, ok, raw)
		require.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"", "0", "-1", "1.5", "abc", "NaN", "+Inf", "0.0", "99999999999"} {
		_, ok := parseID(raw)
		require.False(t, ok, raw)
	}
}
