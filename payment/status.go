// Package payment runs payment attempts against pluggable providers and
// tracks their status until the provider reports an outcome.
package payment

import (
	"errors"
	"fmt"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

var (
	ErrInvalidTransition = errors.New("payment: invalid status transition")
	ErrUnknownAttempt    = errors.New("payment: unknown attempt")
	ErrUnknownMethod     = errors.New("payment: unknown payment method")
	ErrClosed            = errors.New("payment: tracker closed")
	ErrInFlight          = errors.New("payment: order already has a payment in progress")
)

var transitions = map[Status][]Status{
	StatusIdle:    {StatusPending},
	StatusPending: {StatusSuccess, StatusFailed},
	StatusFailed:  {StatusIdle},
}

// Transition checks that from -> to is allowed. Success is terminal.
func Transition(from, to Status) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Settled reports whether a provider outcome has been recorded.
func (s Status) Settled() bool {
	return s == StatusSuccess || s == StatusFailed
}
