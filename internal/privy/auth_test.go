package privy_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"github.com/USA-RedDragon/contract-relay/internal/privy"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerificationKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func signToken(t *testing.T, key *ecdsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Issuer:    "privy.io",
		Subject:   "did:privy:abc123",
		Audience:  jwt.ClaimStrings{"app"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
}

func TestTokenVerifier(t *testing.T) {
	t.Parallel()

	key, pub := newVerificationKey(t)
	verifier, err := privy.NewTokenVerifier("app", pub)
	require.NoError(t, err)

	subject, err := verifier.Verify(signToken(t, key, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "did:privy:abc123", subject)

	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"other-app"}
	_, err = verifier.Verify(signToken(t, key, wrongAudience))
	assert.Error(t, err)

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "example.com"
	_, err = verifier.Verify(signToken(t, key, wrongIssuer))
	assert.Error(t, err)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	_, err = verifier.Verify(signToken(t, key, expired))
	assert.Error(t, err)

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil
	_, err = verifier.Verify(signToken(t, key, noExpiry))
	assert.Error(t, err)

	otherKey, _ := newVerificationKey(t)
	_, err = verifier.Verify(signToken(t, otherKey, validClaims()))
	assert.Error(t, err)
}

func TestTokenVerifierEscapedPEM(t *testing.T) {
	t.Parallel()

	key, pub := newVerificationKey(t)
	verifier, err := privy.NewTokenVerifier("app", strings.ReplaceAll(pub, "\n", `\n`))
	require.NoError(t, err)

	_, err = verifier.Verify(signToken(t, key, validClaims()))
	assert.NoError(t, err)
}

func TestNewTokenVerifierErrors(t *testing.T) {
	t.Parallel()

	_, pub := newVerificationKey(t)
	_, err := privy.NewTokenVerifier("", pub)
	assert.ErrorIs(t, err, privy.ErrAppIDRequired)
	_, err = privy.NewTokenVerifier("app", "")
	assert.ErrorIs(t, err, privy.ErrVerificationKeyRequired)
	_, err = privy.NewTokenVerifier("app", "not a pem")
	assert.Error(t, err)
}
