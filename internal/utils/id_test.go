package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseID(t *testing.T) {
	t.Parallel()
	for raw, want := range map[string]uint64{"12": 12, "12abc": 12, " 7": 7, "007": 7, "0": 0} {
		got, ok := ParseID(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	for _, raw := range []string{"", "abc", "-3", "99999999999999999999"} {
		_, ok := ParseID(raw)
		assert.False(t, ok, raw)
	}
}
