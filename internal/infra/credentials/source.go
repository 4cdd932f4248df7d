package credentials

import (
	"context"
	"errors"
	"os"
	"strings"
)

// ErrMissingAPIKey is returned when no source yields a key.
var ErrMissingAPIKey = errors.New("no API key configured: select your own API key")

// Source resolves an API key. Implementations must be cheap enough to call
// before every remote request: nothing downstream caches the value.
type Source interface {
	APIKey(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (string, error)

func (f SourceFunc) APIKey(ctx context.Context) (string, error) { return f(ctx) }

// Static always returns key. Intended for tests and one-off CLI flags.
func Static(key string) Source {
	key = strings.TrimSpace(key)
	return SourceFunc(func(context.Context) (string, error) { return key, nil })
}

// Env reads the first non-empty variable among names on every call.
func Env(names ...string) Source {
	return SourceFunc(func(context.Context) (string, error) {
		for _, name := range names {
			if v := strings.TrimSpace(os.Getenv(name)); v != "" {
				return v, nil
			}
		}
		return "", nil
	})
}

// Chain tries each source in order and returns the first non-empty key.
// Source errors are remembered and returned only if no key is found.
func Chain(sources ...Source) Source {
	return SourceFunc(func(ctx context.Context) (string, error) {
		var errs []error
		for _, src := range sources {
			if src == nil {
				continue
			}
			key, err := src.APIKey(ctx)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if key = strings.TrimSpace(key); key != "" {
				return key, nil
			}
		}
		if len(errs) > 0 {
			return "", errors.Join(errs...)
		}
		return "", nil
	})
}

// Required wraps src so an empty key becomes ErrMissingAPIKey.
func Required(src Source) Source {
	return SourceFunc(func(ctx context.Context) (string, error) {
		key, err := src.APIKey(ctx)
		if err != nil {
			return "", err
		}
		if key == "" {
			return "", ErrMissingAPIKey
		}
		return key, nil
	})
}

type overrideKey struct{ provider string }

// WithOverride attaches a caller-supplied key for provider to ctx. Override
// sources consult it before anything else.
func WithOverride(ctx context.Context, provider, key string) context.Context {
	key = strings.TrimSpace(key)
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, overrideKey{provider: provider}, key)
}

// Override returns a source reading the per-request key for provider.
func Override(provider string) Source {
	return SourceFunc(func(ctx context.Context) (string, error) {
		if v, ok := ctx.Value(overrideKey{provider: provider}).(string); ok {
			return v, nil
		}
		return "", nil
	})
}
