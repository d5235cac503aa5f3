package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "my_strong_and_long_secret_key_2026"

func TestVerifyRoundTrip(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(testSecret, "u1", "u1@example.com", time.Hour)
	req.NoError(err)

	identity, err := NewVerifier(testSecret).Verify(token)
	req.NoError(err)
	req.Equal("u1", identity.ID)
	req.Equal("u1@example.com", identity.Email)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(testSecret, "u1", "u1@example.com", time.Hour)
	req.NoError(err)

	_, err = NewVerifier("another_secret_entirely_1234567890").Verify(token)
	req.Error(err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(testSecret, "u1", "u1@example.com", -time.Minute)
	req.NoError(err)

	_, err = NewVerifier(testSecret).Verify(token)
	req.Error(err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	req := require.New(t)

	_, err := NewVerifier(testSecret).Verify("not-a-token")
	req.Error(err)
}
