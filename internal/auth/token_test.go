package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	issuer := NewTokenIssuer("north-pole", time.Hour)

	token, err := issuer.Issue("host-1", "123456")
	require.NoError(t, err)

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "host-1", claims.HostID)
	assert.Equal(t, "123456", claims.Pin)
}

func TestValidateRejectsForeignAndExpiredTokens(t *testing.T) {
	now := time.Date(2026, 12, 24, 18, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer("north-pole", time.Hour).WithClock(func() time.Time { return now })

	token, err := issuer.Issue("host-1", "123456")
	require.NoError(t, err)

	_, err = NewTokenIssuer("south-pole", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	now = now.Add(2 * time.Hour)
	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
