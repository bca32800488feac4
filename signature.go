package edgesession

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"strings"
)

const signatureSeparator = "."

// Signature signs and verifies short strings with HMAC-SHA256.
//
// The mac is computed over the SHA-256 digest of the message, not over the
// message itself. Tokens signed by other implementations of this scheme
// depend on that, so it must not change.
type Signature struct {
	key *keyHolder
}

// NewSignature derives the signing key from secret. The only error it
// returns is a *KeyDerivationError.
func NewSignature(secret string) (*Signature, error) {
	s := &Signature{key: newKeyHolder(secret)}
	if _, err := s.key.get(); err != nil {
		return nil, err
	}
	return s, nil
}

// Sign returns "message.hexmac". The message must be non-empty and must not
// contain the separator, otherwise Unsign could never verify the token.
func (s *Signature) Sign(message string) (string, error) {
	if message == "" || strings.Contains(message, signatureSeparator) {
		return "", ErrMalformedToken
	}
	mac, err := s.mac(message)
	if err != nil {
		return "", err
	}
	return message + signatureSeparator + EncodeHex(mac), nil
}

// Unsign verifies token and returns its message part.
func (s *Signature) Unsign(token string) (string, error) {
	pair := strings.Split(token, signatureSeparator)
	if len(pair) != 2 || pair[0] == "" || pair[1] == "" {
		return "", ErrMalformedToken
	}
	msg, sig := pair[0], pair[1]

	got, err := DecodeHex(sig)
	if err != nil {
		return "", errors.Join(ErrMalformedToken, err)
	}

	want, err := s.mac(msg)
	if err != nil {
		return "", err
	}
	if !hmac.Equal(got, want) {
		return "", ErrInvalidSignature
	}
	return msg, nil
}

func (s *Signature) mac(message string) ([]byte, error) {
	key, err := s.key.get()
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256([]byte(message))
	h := hmac.New(sha256.New, key)
	h.Write(digest[:])
	return h.Sum(nil), nil
}
