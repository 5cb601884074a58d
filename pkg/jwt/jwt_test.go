package jwt_test

import (
	"testing"
	"time"

	"recky/backend/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	token, err := jwt.GenerateToken("alice", "secret", time.Hour)
	require.NoError(t, err)

	sub, err := jwt.ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestParseTokenRejects(t *testing.T) {
	t.Parallel()

	valid, err := jwt.GenerateToken("alice", "secret", time.Hour)
	require.NoError(t, err)
	expired, err := jwt.GenerateToken("alice", "secret", -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", valid, "other"},
		{"expired", expired, "secret"},
		{"garbage", "not-a-token", "secret"},
		{"empty", "", "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := jwt.ParseToken(tt.token, tt.secret)
			require.ErrorIs(t, err, jwt.ErrInvalidToken)
		})
	}

	_, err = jwt.GenerateToken("alice", "", time.Hour)
	require.Error(t, err)
}
