package privy

import (
	"crypto/ecdsa"
	"fmt"
	"strings"
	"time"

	"github.com/go-errors/errors"
	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "privy.io"

var (
	ErrVerificationKeyRequired = errors.New("Privy verification key is required")
	ErrTokenHasNoSubject       = errors.New("token has no subject")
)

// TokenVerifier checks the ES256 access tokens Privy hands to logged-in users.
type TokenVerifier struct {
	appID string
	key   *ecdsa.PublicKey
}

func NewTokenVerifier(appID, verificationKey string) (*TokenVerifier, error) {
	if appID == "" {
		return nil, ErrAppIDRequired
	}
	if verificationKey == "" {
		return nil, ErrVerificationKeyRequired
	}
	// Env vars often carry the PEM with escaped newlines
	verificationKey = strings.ReplaceAll(verificationKey, `\n`, "\n")
	key, err := jwt.ParseECPublicKeyFromPEM([]byte(verificationKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse verification key: %w", err)
	}
	return &TokenVerifier{
		appID: appID,
		key:   key,
	}, nil
}

// Verify returns the Privy DID of the token's user.
func (v *TokenVerifier) Verify(token string) (string, error) {
	claims := new(jwt.RegisteredClaims)
	_, err := jwt.NewParser(
		jwt.WithLeeway(5*time.Minute),
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Name}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(v.appID),
		jwt.WithExpirationRequired(),
	).ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("invalid signing method: %s", token.Header["alg"])
		}
		return v.key, nil
	})
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrTokenHasNoSubject
	}
	return claims.Subject, nil
}
