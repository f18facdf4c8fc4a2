package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// WithTimeout bounds every call to next by d. A call that outlives d is
// abandoned and reported as an *UnavailableError; cancellation of the
// caller's context is returned as ctx.Err(). The bound is placed beneath any
// Cached and RateLimited layers, so cache hits and rate limit waits do not
// count against it.
func WithTimeout(next Engine, d time.Duration) Engine {
	if d <= 0 {
		return next
	}
	switch layer := next.(type) {
	case *cachedEngine:
		return &cachedEngine{next: WithTimeout(layer.next, d), cache: layer.cache}
	case *rateLimitedEngine:
		return &rateLimitedEngine{next: WithTimeout(layer.next, d), limiter: layer.limiter}
	}
	return &timeoutEngine{next: next, timeout: d}
}

type timeoutEngine struct {
	next    Engine
	timeout time.Duration
}

func (t *timeoutEngine) Name() string {
	return NameOf(t.next)
}

type suggestResult struct {
	suggestion Suggestion
	err        error
}

func (t *timeoutEngine) Suggest(ctx context.Context, req Request) (Suggestion, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan suggestResult, 1)
	go func() {
		suggestion, err := t.next.Suggest(callCtx, req)
		done <- suggestResult{suggestion: suggestion, err: err}
	}()

	select {
	case result := <-done:
		if result.err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return Suggestion{}, t.timedOut()
		}
		return result.suggestion, result.err
	case <-callCtx.Done():
		if err := ctx.Err(); err != nil {
			return Suggestion{}, err
		}
		return Suggestion{}, t.timedOut()
	}
}

func (t *timeoutEngine) timedOut() error {
	return &UnavailableError{
		Engine: NameOf(t.next),
		Err:    fmt.Errorf("timed out after %s: %w", t.timeout, context.DeadlineExceeded),
	}
}

// Cached memoizes successful suggestions keyed by fixture, marker, language
// and prompt text.
// size <= 0 returns next unchanged.
func Cached(next Engine, size int) (Engine, error) {
	if size <= 0 {
		return next, nil
	}
	cache, err := lru.New[string, Suggestion](size)
	if err != nil {
		return nil, fmt.Errorf("create suggestion cache: %w", err)
	}
	return &cachedEngine{next: next, cache: cache}, nil
}

type cachedEngine struct {
	next  Engine
	cache *lru.Cache[string, Suggestion]
}

func (c *cachedEngine) Name() string {
	return NameOf(c.next)
}

func (c *cachedEngine) Suggest(ctx context.Context, req Request) (Suggestion, error) {
	key := cacheKey(req)
	if suggestion, ok := c.cache.Get(key); ok {
		return suggestion, nil
	}
	suggestion, err := c.next.Suggest(ctx, req)
	if err != nil {
		return Suggestion{}, err
	}
	c.cache.Add(key, suggestion)
	return suggestion, nil
}

func cacheKey(req Request) string {
	hash := sha256.New()
	hash.Write([]byte(req.FixturePath))
	hash.Write([]byte{0})
	hash.Write([]byte(strconv.Itoa(req.MarkerIndex)))
	hash.Write([]byte{0})
	hash.Write([]byte(req.Language))
	hash.Write([]byte{0})
	hash.Write([]byte(req.Scenario))
	hash.Write([]byte{0})
	hash.Write([]byte(req.Prompt()))
	return hex.EncodeToString(hash.Sum(nil))
}

// RateLimited spaces calls to next at perSecond with the given burst.
// perSecond <= 0 returns next unchanged.
func RateLimited(next Engine, perSecond float64, burst int) Engine {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedEngine{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

type rateLimitedEngine struct {
	next    Engine
	limiter *rate.Limiter
}

func (r *rateLimitedEngine) Name() string {
	return NameOf(r.next)
}

func (r *rateLimitedEngine) Suggest(ctx context.Context, req Request) (Suggestion, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Suggestion{}, ctxErr
		}
		return Suggestion{}, Unavailable(NameOf(r.next), fmt.Errorf("rate limiter: %w", err))
	}
	return r.next.Suggest(ctx, req)
}
