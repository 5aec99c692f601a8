package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCipherRoundTrip(t *testing.T) {
	cipher, err := NewTokenCipher("test-secret-key")
	require.NoError(t, err)

	encrypted, err := cipher.Encrypt("plex-token-abc123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encrypted, "enc::"))
	assert.NotContains(t, encrypted, "plex-token-abc123")

	decrypted, err := cipher.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "plex-token-abc123", decrypted)
}

func TestTokenCipherNonceVariance(t *testing.T) {
	cipher, err := NewTokenCipher("test-secret-key")
	require.NoError(t, err)

	a, err := cipher.Encrypt("same-value")
	require.NoError(t, err)
	b, err := cipher.Encrypt("same-value")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenCipherPlaintextPassthrough(t *testing.T) {
	cipher, err := NewTokenCipher("test-secret-key")
	require.NoError(t, err)

	// Values stored before encryption was introduced come back verbatim.
	out, err := cipher.Decrypt("legacy-plain-token")
	require.NoError(t, err)
	assert.Equal(t, "legacy-plain-token", out)
}

func TestTokenCipherWrongKey(t *testing.T) {
	alice, err := NewTokenCipher("key-one")
	require.NoError(t, err)
	bob, err := NewTokenCipher("key-two")
	require.NoError(t, err)

	encrypted, err := alice.Encrypt("secret")
	require.NoError(t, err)

	_, err = bob.Decrypt(encrypted)
	assert.Error(t, err)
}

func TestTokenCipherRequiresKey(t *testing.T) {
	_, err := NewTokenCipher("")
	assert.Error(t, err)
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("jwt-secret", time.Hour)
	userID := uuid.New()

	token, err := issuer.Issue(userID)
	require.NoError(t, err)

	parsed, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestTokenIssuerRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("jwt-secret", -time.Minute)

	token, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.Error(t, err)
}

func TestTokenIssuerRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a", time.Hour).Issue(uuid.New())
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b", time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestTokenIssuerRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("jwt-secret", time.Hour)
	_, err := issuer.Verify("not-a-jwt")
	assert.Error(t, err)
}
