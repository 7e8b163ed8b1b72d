package privy

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-errors/errors"
)

const authorizationKeyPrefix = "wallet-auth:"

var (
	ErrInvalidAuthorizationKey = errors.New("authorization key is not a base64 PKCS#8 P-256 private key")
)

// ParseAuthorizationKey accepts the key as shown in the Privy dashboard, with or
// without the wallet-auth: prefix.
func ParseAuthorizationKey(key string) (*ecdsa.PrivateKey, error) {
	key = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(key), authorizationKeyPrefix))
	der, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAuthorizationKey, err)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAuthorizationKey, err)
	}
	privateKey, ok := parsed.(*ecdsa.PrivateKey)
	if !ok || privateKey.Curve != elliptic.P256() {
		return nil, ErrInvalidAuthorizationKey
	}
	return privateKey, nil
}

// EncodeAuthorizationKey is the inverse of ParseAuthorizationKey.
func EncodeAuthorizationKey(key *ecdsa.PrivateKey) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", err
	}
	return authorizationKeyPrefix + base64.StdEncoding.EncodeToString(der), nil
}

type signaturePayload struct {
	Version int               `json:"version"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Body    json.RawMessage   `json:"body"`
	Headers map[string]string `json:"headers"`
}

// canonicalJSON re-encodes v with sorted object keys, no insignificant whitespace
// and no HTML escaping, which is what the API canonicalizes to before verifying.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func authorizationSignature(key *ecdsa.PrivateKey, method, url string, body []byte, headers map[string]string) (string, error) {
	payload, err := canonicalJSON(signaturePayload{
		Version: 1,
		Method:  method,
		URL:     url,
		Body:    body,
		Headers: headers,
	})
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize signature payload: %w", err)
	}
	digest := sha256.Sum256(payload)
	sig, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}
