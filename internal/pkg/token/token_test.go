package token

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	c1, err := NewCode()
	require.NoError(t, err)
	c2, err := NewCode()
	require.NoError(t, err)

	assert.Len(t, c1, 32) // 16 bytes hex-encoded
	assert.NotEqual(t, c1, c2)
	_, err = hex.DecodeString(c1)
	assert.NoError(t, err)
}

func TestNewOTP(t *testing.T) {
	for i := 0; i < 20; i++ {
		otp, err := NewOTP()
		require.NoError(t, err)
		assert.Len(t, otp, 6)
		assert.Regexp(t, `^\d{6}$`, otp)
	}
}
