package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	for _, length := range []int{4, 6, 8} {
		code, err := GenerateOTP(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "code must be numeric, got %q", code)
		}
	}
}

func TestHashOTP_Deterministic(t *testing.T) {
	code := "123456"
	assert.Equal(t, HashOTP(code), HashOTP(code))
	assert.NotEqual(t, HashOTP(code), HashOTP("654321"))
	// never store the plaintext code
	assert.NotContains(t, HashOTP(code), code)
}

func TestVerifyOTP(t *testing.T) {
	code, err := GenerateOTP(6)
	require.NoError(t, err)
	hash := HashOTP(code)

	assert.True(t, VerifyOTP(code, hash))
	assert.False(t, VerifyOTP("000000", hash))
	assert.False(t, VerifyOTP(code, HashOTP("000000")))
}
