package ids

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublicID(t *testing.T) {
	re := regexp.MustCompile(`^proj-\d{5}-\d{4}$`)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := NewPublicID("proj")
		require.NoError(t, err)
		assert.Regexp(t, re, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 1, "ids should vary")
}

func TestNewHexID(t *testing.T) {
	id, err := NewHexID("att")
	require.NoError(t, err)
	assert.Regexp(t, `^att_[0-9a-f]{32}$`, id)
}
