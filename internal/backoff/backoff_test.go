// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPolicy keeps delays tiny so tests finish quickly.
var testPolicy = Policy{Base: time.Millisecond, MaxRetries: 3}

func TestState_ImmediateSuccess(t *testing.T) {
	s := testPolicy.Start()
	assert.Equal(t, Attempting, s.Phase)

	s.Observe(nil)

	assert.Equal(t, Succeeded, s.Phase)
	assert.True(t, s.Done())
	assert.NoError(t, s.Err)
	assert.Equal(t, 1, s.Attempt)
}

func TestState_DelayDoubles(t *testing.T) {
	s := testPolicy.Start()
	transient := Transient(errors.New("throttled"))

	var delays []time.Duration
	for !s.Done() {
		s.Observe(transient)
		if s.Phase == Waiting {
			delays = append(delays, s.Delay)
			s.Phase = Attempting // skip the real wait
		}
	}

	assert.Equal(t, []time.Duration{
		time.Millisecond,
		2 * time.Millisecond,
		4 * time.Millisecond,
	}, delays)
	assert.Equal(t, Failed, s.Phase)
}

func TestState_ExhaustsRetriesAfterCap(t *testing.T) {
	s := testPolicy.Start()
	transient := Transient(errors.New("throttled"))

	attempts := 0
	for !s.Done() {
		s.Observe(transient)
		attempts++
		if s.Phase == Waiting {
			s.Phase = Attempting
		}
	}

	// One initial attempt plus three retries.
	assert.Equal(t, 4, attempts)
	assert.Equal(t, Failed, s.Phase)
	assert.Error(t, s.Err)
}

func TestState_PermanentErrorFailsImmediately(t *testing.T) {
	s := testPolicy.Start()
	s.Observe(errors.New("404 not found"))

	assert.Equal(t, Failed, s.Phase)
	assert.Equal(t, 1, s.Attempt)
}

func TestState_SucceedsAfterRetriesClearsErr(t *testing.T) {
	s := testPolicy.Start()
	s.Observe(Transient(errors.New("throttled")))
	require.Equal(t, Waiting, s.Phase)
	s.Phase = Attempting

	s.Observe(nil)

	assert.Equal(t, Succeeded, s.Phase)
	assert.NoError(t, s.Err)
}

func TestWait_ContextCancelled(t *testing.T) {
	s := Policy{Base: time.Minute, MaxRetries: 3}.Start()
	s.Observe(Transient(errors.New("throttled")))
	require.Equal(t, Waiting, s.Phase)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Wait(ctx)
	require.Error(t, err)
	assert.Equal(t, Failed, s.Phase)
	assert.ErrorIs(t, s.Err, context.Canceled)
}

func TestRetry_SucceedsMidway(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), testPolicy, func() error {
		calls++
		if calls < 3 {
			return Transient(errors.New("throttled"))
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ReportsEachRetry(t *testing.T) {
	var attempts []int
	calls := 0
	err := Retry(context.Background(), testPolicy, func() error {
		calls++
		return Transient(errors.New("throttled"))
	}, func(attempt int, delay time.Duration) {
		attempts = append(attempts, attempt)
		assert.Greater(t, delay, time.Duration(0))
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestTransient_Marking(t *testing.T) {
	base := errors.New("boom")
	assert.False(t, IsTransient(base))
	assert.True(t, IsTransient(Transient(base)))
	assert.Nil(t, Transient(nil))

	// Wrapping preserves the mark.
	wrapped := Transient(base)
	assert.ErrorIs(t, wrapped, base)
}
