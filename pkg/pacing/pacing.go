// Package pacing throttles record generation.
package pacing

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/ratelimit"
	"golang.org/x/time/rate"
)

// Limiter blocks until n more records may be produced
type Limiter interface {
	Wait(ctx context.Context, n int) error
}

// New builds a limiter by name: "token" (bursty token bucket), "smooth"
// (evenly spaced) or "none". A non-positive rate is always unlimited.
func New(kind string, perSecond float64, burst int) (Limiter, error) {
	if perSecond <= 0 {
		return Unlimited{}, nil
	}
	switch strings.ToLower(kind) {
	case "", "token", "bucket", "burst":
		return NewTokenBucket(perSecond, burst), nil
	case "smooth":
		return NewSmooth(perSecond), nil
	case "none", "unlimited":
		return Unlimited{}, nil
	default:
		return nil, fmt.Errorf("unknown pacing %q", kind)
	}
}

// TokenBucket allows bursts of up to burst records above the steady rate
type TokenBucket struct {
	limiter *rate.Limiter
	burst   int
}

func NewTokenBucket(perSecond float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(perSecond), burst), burst: burst}
}

// Wait takes n tokens, in bucket-sized pieces when n exceeds the burst
func (b *TokenBucket) Wait(ctx context.Context, n int) error {
	for n > 0 {
		take := n
		if take > b.burst {
			take = b.burst
		}
		if err := b.limiter.WaitN(ctx, take); err != nil {
			return err
		}
		n -= take
	}
	return nil
}

// Smooth spaces records evenly with no bursts
type Smooth struct {
	limiter ratelimit.Limiter
}

func NewSmooth(perSecond float64) *Smooth {
	rps := int(perSecond)
	if rps < 1 {
		rps = 1
	}
	return &Smooth{limiter: ratelimit.New(rps)}
}

func (s *Smooth) Wait(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.limiter.Take()
	}
	return nil
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context, _ int) error {
	return ctx.Err()
}
