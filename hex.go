package edgesession

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// EncodeHex returns the lowercase hex encoding of b, two digits per byte.
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

// DecodeHex decodes s into bytes. It fails with ErrOddLength when len(s) is
// odd and with ErrInvalidDigit when s contains a non-hex character.
func DecodeHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, ErrOddLength
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		var ib hex.InvalidByteError
		if errors.As(err, &ib) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDigit, byte(ib))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDigit, err)
	}
	return b, nil
}
