// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backoff implements capped exponential backoff for transient
// fetch failures. The retry loop is an explicit state machine with the
// attempt count and computed delay carried as data, so the policy is
// testable without real network calls or sleeps.
package backoff

import (
	"context"
	"errors"
	"time"
)

// DefaultBase is the base delay unit. The delay sequence doubles from it:
// base, 2x, 4x. Tests use a Policy with a millisecond base instead.
const DefaultBase = 1 * time.Second

// DefaultMaxRetries caps how many times a failed fetch is retried before
// the item is marked failed and the batch moves on.
const DefaultMaxRetries = 3

// Phase is the state machine's current position.
type Phase int

const (
	// Attempting means the operation should be (re)executed now.
	Attempting Phase = iota
	// Waiting means a transient failure was observed and the caller must
	// wait for State.Delay before retrying.
	Waiting
	// Succeeded is terminal: the operation completed.
	Succeeded
	// Failed is terminal: retries are exhausted or the error was permanent.
	Failed
)

func (p Phase) String() string {
	switch p {
	case Attempting:
		return "attempting"
	case Waiting:
		return "waiting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Policy holds the backoff parameters.
type Policy struct {
	// Base is the initial delay; it doubles on each retry.
	Base time.Duration

	// MaxRetries is the retry cap after the first attempt.
	MaxRetries int
}

func (p Policy) withDefaults() Policy {
	if p.Base <= 0 {
		p.Base = DefaultBase
	}
	if p.MaxRetries <= 0 {
		p.MaxRetries = DefaultMaxRetries
	}
	return p
}

// State tracks one operation's progress through the retry policy.
type State struct {
	policy Policy

	// Phase is the machine's current state.
	Phase Phase

	// Attempt counts executions so far, starting at 0 before the first.
	Attempt int

	// Delay is the wait computed for the current Waiting phase.
	Delay time.Duration

	// Err is the last observed error once the machine reaches Failed.
	Err error
}

// Start returns a fresh state machine for one operation under p.
func (p Policy) Start() *State {
	return &State{policy: p.withDefaults(), Phase: Attempting}
}

// Observe records the result of one attempt and advances the machine.
// A nil error moves to Succeeded. A transient error moves to Waiting with
// a doubled delay while retries remain, and to Failed once the cap is hit.
// Non-transient errors fail immediately: only failures explicitly marked
// transient are worth repeating.
func (s *State) Observe(err error) {
	s.Attempt++
	if err == nil {
		s.Phase = Succeeded
		s.Err = nil
		return
	}
	s.Err = err
	if !IsTransient(err) || s.Attempt > s.policy.MaxRetries {
		s.Phase = Failed
		return
	}
	s.Delay = s.policy.Base << (s.Attempt - 1)
	s.Phase = Waiting
}

// Wait blocks for the computed delay, then returns the machine to
// Attempting. It returns ctx.Err() if the context is cancelled mid-wait,
// leaving the machine in Failed.
func (s *State) Wait(ctx context.Context) error {
	if s.Phase != Waiting {
		return nil
	}
	select {
	case <-ctx.Done():
		s.Phase = Failed
		s.Err = ctx.Err()
		return ctx.Err()
	case <-time.After(s.Delay):
		s.Phase = Attempting
		return nil
	}
}

// Done reports whether the machine reached a terminal phase.
func (s *State) Done() bool {
	return s.Phase == Succeeded || s.Phase == Failed
}

// Retry runs fn under the policy until it succeeds, exhausts retries, or
// the context is cancelled. onRetry, when non-nil, is invoked before each
// wait with the attempt number and computed delay so callers can log the
// retry. The returned error is the last one fn produced.
func Retry(ctx context.Context, p Policy, fn func() error, onRetry func(attempt int, delay time.Duration)) error {
	s := p.Start()
	for {
		s.Observe(fn())
		if s.Done() {
			return s.Err
		}
		if onRetry != nil {
			onRetry(s.Attempt, s.Delay)
		}
		if err := s.Wait(ctx); err != nil {
			return err
		}
	}
}

// transientError marks an error as retryable.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err so the state machine treats it as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was marked retryable with Transient.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
