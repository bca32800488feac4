package edgesession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// GetAs reads the data value under label into a T. ok is false when there is
// no session or no such value.
//
//	type Cart struct{ Items []string `json:"items"` }
//	cart, ok, err := edgesession.GetAs[Cart](ctx, engine, jar, "cart")
func GetAs[T any](ctx context.Context, e *Engine, r CookieReader, label string) (v T, ok bool, err error) {
	raw, ok, err := e.getRaw(ctx, r, kindData, label)
	if err != nil || !ok {
		return v, false, err
	}
	v, err = decodeAs[T](raw)
	return v, err == nil, err
}

// GetFlashAs consumes the flash value under label into a T. The value is
// removed even when it does not decode into T.
func GetFlashAs[T any](ctx context.Context, e *Engine, r CookieReader, label string) (v T, ok bool, err error) {
	raw, ok, err := e.takeFlash(ctx, r, label)
	if err != nil || !ok {
		return v, false, err
	}
	v, err = decodeAs[T](raw)
	return v, err == nil, err
}

func decodeAs[T any](raw string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		// Plain strings written by other clients are not JSON encoded.
		if p, ok := any(&v).(*string); ok {
			*p = raw
			return v, nil
		}
		return v, errors.Join(ErrDecode, fmt.Errorf("into %T: %w", v, err))
	}
	return v, nil
}
