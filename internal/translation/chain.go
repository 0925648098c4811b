package translation

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/modelboard/api/internal/client"
	"github.com/modelboard/api/internal/model"
)

// ErrNoProviders is returned by a chain with nothing to call.
var ErrNoProviders = errors.New("no translation providers configured")

// Translator turns text into the target language.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Chain tries the primary providers in order, then the fallback, and returns
// the first non-empty translation.
type Chain struct {
	primaries []client.Provider
	fallback  client.Provider
	cache     Cache
	timeout   time.Duration
}

// NewChain creates a provider chain. fallback and cache may be nil; a zero
// timeout leaves each call bounded only by ctx.
func NewChain(primaries []client.Provider, fallback client.Provider, cache Cache, timeout time.Duration) *Chain {
	return &Chain{
		primaries: primaries,
		fallback:  fallback,
		cache:     cache,
		timeout:   timeout,
	}
}

// Translate checks the cache, then walks the providers. On total failure it
// returns the error of the last provider tried.
func (c *Chain) Translate(ctx context.Context, text, source, target string) (string, error) {
	key := CacheKey(text, target)
	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	var lastErr error
	for _, p := range c.providers() {
		translated, err := c.call(ctx, p, text, source, target)
		if err != nil {
			log.Printf("Translation provider %s failed for %s: %v", p.Name(), target, err)
			lastErr = err
			continue
		}
		if c.cache != nil {
			c.cache.Set(ctx, key, translated)
		}
		return translated, nil
	}

	if lastErr == nil {
		lastErr = ErrNoProviders
	}
	return "", lastErr
}

// Size returns the number of providers in the chain
func (c *Chain) Size() int {
	return len(c.providers())
}

func (c *Chain) providers() []client.Provider {
	out := make([]client.Provider, 0, len(c.primaries)+1)
	out = append(out, c.primaries...)
	if c.fallback != nil {
		out = append(out, c.fallback)
	}
	return out
}

func (c *Chain) call(ctx context.Context, p client.Provider, text, source, target string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	translated, err := p.Translate(ctx, text, source, target)
	if err != nil {
		return "", err
	}
	translated = strings.TrimSpace(translated)
	if translated == "" {
		return "", &client.ProviderError{Provider: p.Name(), Class: model.ErrorClassContent, Err: client.ErrEmptyTranslation}
	}
	return translated, nil
}
