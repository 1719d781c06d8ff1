package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/tokensale-client/internal/ratelimit"
)

func TestLimiter_BurstThenThrottle(t *testing.T) {
	l := ratelimit.New(1, 2)

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	l := ratelimit.New(0.001, 1)
	require.True(t, l.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, l.Wait(ctx))
}

func TestLimiter_NilNeverThrottles(t *testing.T) {
	var l *ratelimit.Limiter

	assert.NoError(t, l.Wait(context.Background()))
	assert.True(t, l.Allow())
	assert.NoError(t, ratelimit.Unlimited().Wait(context.Background()))
}
