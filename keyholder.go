package edgesession

import "sync"

// keyHolder derives the HMAC key from a secret on first use and hands the
// same key (or the same failure) to every caller afterwards.
type keyHolder struct {
	get func() ([]byte, error)
}

func newKeyHolder(secret string) *keyHolder {
	return newKeyHolderFunc(func() ([]byte, error) {
		return deriveKey(secret)
	})
}

// newKeyHolderFunc memoizes derive; it runs at most once.
func newKeyHolderFunc(derive func() ([]byte, error)) *keyHolder {
	return &keyHolder{get: sync.OnceValues(derive)}
}

// deriveKey imports the secret as a raw HMAC-SHA256 key.
func deriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, &KeyDerivationError{Err: ErrEmptySecret}
	}
	return []byte(secret), nil
}
