package edgesession

import "errors"

var (
	// ErrMalformedToken is returned when a signed token is not of the form
	// "message.hexmac" or its mac part is not valid hex.
	ErrMalformedToken = errors.New("edgesession: malformed signed token")

	// ErrInvalidSignature is returned when the mac of a signed token does not
	// match its message.
	ErrInvalidSignature = errors.New("edgesession: invalid signature")

	// ErrOddLength is returned when decoding a hex string of odd length.
	ErrOddLength = errors.New("edgesession: hex string has odd length")

	// ErrInvalidDigit is returned when decoding a hex string that contains a
	// character outside [0-9a-fA-F].
	ErrInvalidDigit = errors.New("edgesession: invalid hex digit")

	// ErrEmptySecret is returned when a signing key is derived from an empty secret.
	ErrEmptySecret = errors.New("edgesession: empty secret")

	// ErrStore wraps every error returned by a Store backend.
	ErrStore = errors.New("edgesession: store failure")

	// ErrDecode is returned when a stored value cannot be decoded into the requested type.
	ErrDecode = errors.New("edgesession: cannot decode stored value")

	// ErrInvalidConfig is returned when options or configuration fail validation.
	ErrInvalidConfig = errors.New("edgesession: invalid config")
)

// KeyDerivationError reports that the signing key could not be derived.
// An Engine cannot be constructed when this happens.
type KeyDerivationError struct {
	Err error
}

func (e *KeyDerivationError) Error() string {
	return "edgesession: key derivation failed: " + e.Err.Error()
}

func (e *KeyDerivationError) Unwrap() error { return e.Err }

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrStore, err)
}
