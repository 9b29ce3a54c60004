package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", hash)

	assert.True(t, CheckPassword(hash, "pw1"))
	assert.False(t, CheckPassword(hash, "pw2"))
	assert.False(t, CheckPassword("not-a-hash", "pw1"))
}
