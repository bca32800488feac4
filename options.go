package edgesession

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultFlashLifetime is how long a flash entry and the cookie written with
// it live when no lifetime is given.
const DefaultFlashLifetime = 120 * time.Second

// Options stores configuration for an Engine.
type Options struct {
	// DataTTL is how long a committed data entry, and the session cookie
	// refreshed with it, live. Zero means one calendar month.
	DataTTL time.Duration

	// FlashLifetime is the default lifetime of a flash entry.
	FlashLifetime time.Duration

	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string
}

// Option configures an Engine.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		FlashLifetime: DefaultFlashLifetime,
		Logger:        slog.New(slog.DiscardHandler),
		Now:           time.Now,
		NewID:         uuid.NewString,
	}
}

// Validate checks if options are valid
func (o *Options) Validate() error {
	if o.DataTTL < 0 {
		return fmt.Errorf("%w: data ttl cannot be negative", ErrInvalidConfig)
	}
	if o.FlashLifetime <= 0 {
		return fmt.Errorf("%w: flash lifetime must be positive", ErrInvalidConfig)
	}
	if o.Logger == nil || o.Now == nil || o.NewID == nil {
		return errors.Join(ErrInvalidConfig, errors.New("logger, clock and id generator are required"))
	}
	return nil
}

// dataExpiry returns when a data entry committed at now expires.
func (o *Options) dataExpiry(now time.Time) time.Time {
	if o.DataTTL == 0 {
		return now.AddDate(0, 1, 0)
	}
	return now.Add(o.DataTTL)
}

// WithLogger sets the logger. Passing nil keeps the default, which discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithDataTTL sets the lifetime of data entries and of the session cookie
// written by Commit.
func WithDataTTL(ttl time.Duration) Option {
	return func(o *Options) {
		o.DataTTL = ttl
	}
}

// WithFlashLifetime sets the default lifetime of flash entries.
func WithFlashLifetime(d time.Duration) Option {
	return func(o *Options) {
		o.FlashLifetime = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}

// WithIDGenerator replaces the session id generator. Ids must be unguessable
// and must not contain '.' or ':'.
func WithIDGenerator(fn func() string) Option {
	return func(o *Options) {
		o.NewID = fn
	}
}
