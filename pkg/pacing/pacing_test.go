package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		kind string
		rate float64
		want interface{}
	}{
		{"token", 100, &TokenBucket{}},
		{"", 100, &TokenBucket{}},
		{"smooth", 100, &Smooth{}},
		{"none", 100, Unlimited{}},
		{"smooth", 0, Unlimited{}},
	}
	for _, tt := range tests {
		l, err := New(tt.kind, tt.rate, 10)
		require.NoError(t, err)
		assert.IsType(t, tt.want, l, tt.kind)
	}

	_, err := New("bogus", 10, 1)
	assert.Error(t, err)
}

func TestTokenBucket_BurstThenThrottle(t *testing.T) {
	b := NewTokenBucket(50, 10)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, b.Wait(ctx, 10))
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	// 5 more tokens at 50/s take about 100ms
	start = time.Now()
	require.NoError(t, b.Wait(ctx, 5))
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestTokenBucket_LargerThanBurst(t *testing.T) {
	b := NewTokenBucket(1000, 4)
	assert.NoError(t, b.Wait(context.Background(), 20))
}

func TestTokenBucket_Cancelled(t *testing.T) {
	b := NewTokenBucket(1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, b.Wait(ctx, 1))
	assert.Error(t, b.Wait(ctx, 1))
}

func TestSmooth(t *testing.T) {
	s := NewSmooth(200)
	start := time.Now()
	require.NoError(t, s.Wait(context.Background(), 11))
	// ten gaps of 5ms
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Wait(ctx, 3), context.Canceled)
}

func TestUnlimited(t *testing.T) {
	assert.NoError(t, Unlimited{}.Wait(context.Background(), 1<<20))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, Unlimited{}.Wait(ctx, 1))
}
