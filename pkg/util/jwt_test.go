package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func TestGenerateAccessToken(t *testing.T) {
	tests := []struct {
		name      string
		studentID uint
		secret    string
		expiry    time.Duration
	}{
		{
			name:      "Valid token generation",
			studentID: 1,
			secret:    testSecret,
			expiry:    24 * time.Hour,
		},
		{
			name:      "Large student ID",
			studentID: 4294967295,
			secret:    testSecret,
			expiry:    time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateAccessToken(tt.studentID, tt.secret, tt.expiry)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := ValidateToken(token, tt.secret)
			require.NoError(t, err)

			id, err := claims.StudentID()
			require.NoError(t, err)
			assert.Equal(t, tt.studentID, id)
		})
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(1, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "different-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestValidateToken_Expired(t *testing.T) {
	token, err := GenerateAccessToken(1, testSecret, -time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestValidateToken_Garbage(t *testing.T) {
	claims, err := ValidateToken("not.a.token", testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}
