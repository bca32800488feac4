package edgesession

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Engine stores session state for a client identified by a signed cookie.
//
// The cookie only carries the session id. Every value lives in the Store
// under "data:<id>:<label>" or "flash:<id>:<label>". An Engine keeps no
// per-session state, so one instance can serve all requests.
type Engine struct {
	sig   *Signature
	store Store
	opts  Options
	log   *slog.Logger
}

// New creates an Engine signing session ids with secret and persisting
// values in store.
func New(secret string, store Store, options ...Option) (*Engine, error) {
	sig, err := NewSignature(secret)
	if err != nil {
		return nil, err
	}
	opts := defaultOptions()
	for _, op := range options {
		op(&opts)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		sig:   sig,
		store: store,
		opts:  opts,
		log:   opts.Logger,
	}, nil
}

// SessionID returns the verified session id from r. A missing cookie and a
// cookie that fails verification both report ok=false.
func (e *Engine) SessionID(ctx context.Context, r CookieReader) (string, bool) {
	v, ok := r.Get(SessionCookieName)
	if !ok || v == "" {
		return "", false
	}
	id, err := e.sig.Unsign(v)
	if err != nil {
		e.log.DebugContext(ctx, "edgesession: rejected session cookie", slog.Any("error", err))
		return "", false
	}
	return id, true
}

// EnsureSessionID returns the session id in w, minting one if there is none,
// and (re)writes the session cookie to expire at expires.
func (e *Engine) EnsureSessionID(ctx context.Context, w CookieJar, expires time.Time) (string, error) {
	id, ok := e.SessionID(ctx, w)
	if !ok {
		id = e.opts.NewID()
		e.log.DebugContext(ctx, "edgesession: minted session id")
	}
	signed, err := e.sig.Sign(id)
	if err != nil {
		return "", err
	}
	w.Set(newSessionCookie(signed, expires, e.opts.Now()))
	return id, nil
}

// Get returns the data value stored under label, or nil when there is no
// session or no such value.
func (e *Engine) Get(ctx context.Context, r CookieReader, label string) (any, error) {
	raw, ok, err := e.getRaw(ctx, r, kindData, label)
	if err != nil || !ok {
		return nil, err
	}
	return decodeValue(raw), nil
}

// Commit stores value under label for the engine's data TTL. A nil value,
// including a nil pointer, map or slice, deletes the label. The session
// cookie is refreshed either way.
func (e *Engine) Commit(ctx context.Context, w CookieJar, label string, value any) error {
	return e.CommitUntil(ctx, w, label, value, e.opts.dataExpiry(e.opts.Now()))
}

// CommitUntil is Commit with an explicit expiry.
func (e *Engine) CommitUntil(ctx context.Context, w CookieJar, label string, value any, expires time.Time) error {
	id, err := e.EnsureSessionID(ctx, w, expires)
	if err != nil {
		return err
	}
	key := storeKey(kindData, id, label)

	if isNil(value) {
		return e.storeResult(ctx, "del", e.store.Del(ctx, key))
	}
	s, err := encodeValue(value)
	if err != nil {
		return err
	}
	ttl := expires.Sub(e.opts.Now())
	if ttl <= 0 {
		// Already expired, don't let the store keep it forever.
		return e.storeResult(ctx, "del", e.store.Del(ctx, key))
	}
	return e.storeResult(ctx, "set", e.store.Set(ctx, key, s, ttl))
}

// Destroy deletes every data and flash value of the session and then the
// session cookie. Without a session it does nothing. When the store fails
// the cookie is kept, so the client can retry.
func (e *Engine) Destroy(ctx context.Context, w CookieJar) error {
	id, ok := e.SessionID(ctx, w)
	if !ok {
		return nil
	}

	// Both prefix deletes run to completion even if one fails, so a failure
	// leaves as little of the session behind as possible.
	var g errgroup.Group
	for _, kind := range []keyKind{kindData, kindFlash} {
		prefix := keyPrefix(kind, id)
		g.Go(func() error {
			return e.store.DelAll(ctx, prefix)
		})
	}
	if err := g.Wait(); err != nil {
		return e.storeResult(ctx, "delall", err)
	}

	w.Delete(SessionCookieName)
	e.log.InfoContext(ctx, "edgesession: session destroyed")
	return nil
}

// HasFlash reports whether a flash value is stored under label. It does not
// consume the value.
func (e *Engine) HasFlash(ctx context.Context, r CookieReader, label string) (bool, error) {
	_, ok, err := e.getRaw(ctx, r, kindFlash, label)
	return ok, err
}

// GetFlash returns the flash value stored under label and removes it. It
// returns nil when there is no session or no such value.
//
// If the store implements Taker the read and delete are atomic. Otherwise
// two concurrent requests may both read the value before either deletes it.
func (e *Engine) GetFlash(ctx context.Context, r CookieReader, label string) (any, error) {
	raw, ok, err := e.takeFlash(ctx, r, label)
	if err != nil || !ok {
		return nil, err
	}
	return decodeValue(raw), nil
}

// CommitFlash stores a flash value under label for the engine's flash
// lifetime. A nil value, including a nil pointer, map or slice, is ignored;
// flash values are only removed by reading them.
func (e *Engine) CommitFlash(ctx context.Context, w CookieJar, label string, value any) error {
	return e.CommitFlashFor(ctx, w, label, value, e.opts.FlashLifetime)
}

// CommitFlashFor is CommitFlash with an explicit lifetime. The session
// cookie is rewritten to expire together with the flash value.
func (e *Engine) CommitFlashFor(ctx context.Context, w CookieJar, label string, value any, lifetime time.Duration) error {
	if isNil(value) {
		return nil
	}
	s, err := encodeValue(value)
	if err != nil {
		return err
	}
	id, err := e.EnsureSessionID(ctx, w, e.opts.Now().Add(lifetime))
	if err != nil {
		return err
	}
	return e.storeResult(ctx, "set", e.store.Set(ctx, storeKey(kindFlash, id, label), s, lifetime))
}

func (e *Engine) getRaw(ctx context.Context, r CookieReader, kind keyKind, label string) (string, bool, error) {
	id, ok := e.SessionID(ctx, r)
	if !ok {
		return "", false, nil
	}
	v, ok, err := e.store.Get(ctx, storeKey(kind, id, label))
	if err != nil {
		return "", false, e.storeResult(ctx, "get", err)
	}
	return v, ok, nil
}

func (e *Engine) takeFlash(ctx context.Context, r CookieReader, label string) (string, bool, error) {
	id, ok := e.SessionID(ctx, r)
	if !ok {
		return "", false, nil
	}
	key := storeKey(kindFlash, id, label)

	if t, ok := e.store.(Taker); ok {
		v, found, err := t.Take(ctx, key)
		if err != nil {
			return "", false, e.storeResult(ctx, "take", err)
		}
		return v, found, nil
	}

	v, found, err := e.store.Get(ctx, key)
	if err != nil {
		return "", false, e.storeResult(ctx, "get", err)
	}
	if err := e.store.Del(ctx, key); err != nil {
		return "", false, e.storeResult(ctx, "del", err)
	}
	return v, found, nil
}

// storeResult logs and wraps a store error. It returns nil for a nil err.
func (e *Engine) storeResult(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	e.log.WarnContext(ctx, "edgesession: store operation failed",
		slog.String("op", op), slog.Any("error", err))
	return storeErr(err)
}
