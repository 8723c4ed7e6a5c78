package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_IssueAndDecode(t *testing.T) {
	t.Parallel()
	m := NewTokenIssuer("super-secret", 0)

	tok, err := m.Issue("acc-1")
	require.NoError(t, err)

	id, err := m.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", id)
}

func TestTokenIssuer_DistinctTokens(t *testing.T) {
	t.Parallel()
	m := NewTokenIssuer("k", 0)

	a, err := m.Issue("acc-1")
	require.NoError(t, err)
	b, err := m.Issue("acc-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	t.Parallel()
	tok, err := NewTokenIssuer("right", 0).Issue("acc-1")
	require.NoError(t, err)

	_, err = NewTokenIssuer("wrong", 0).Decode(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_Malformed(t *testing.T) {
	t.Parallel()
	m := NewTokenIssuer("k", 0)
	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		_, err := m.Decode(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, tok)
	}
}

func TestTokenIssuer_NoExpiryWhenTTLZero(t *testing.T) {
	t.Parallel()
	old := NewTokenIssuer("k", time.Minute)
	old.now = func() time.Time { return time.Now().Add(-24 * time.Hour) }
	tok, err := old.Issue("acc-1")
	require.NoError(t, err)

	// Expired under a TTL policy.
	_, err = NewTokenIssuer("k", time.Minute).Decode(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Accepted when expiry is not enforced.
	id, err := NewTokenIssuer("k", 0).Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", id)
}
