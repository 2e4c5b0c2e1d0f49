// Package audit keeps a minimal trail of login attempts. It stores the step,
// the outcome and the error kind only; no profile data, codes or tokens.
package audit

import (
	"context"
	"time"
)

// Step is the part of the flow an event belongs to.
type Step string

const (
	StepLogin    Step = "login"
	StepCallback Step = "callback"
)

// Outcome is how a step ended.
type Outcome string

const (
	OutcomeRedirected Outcome = "redirected"
	OutcomeAccepted   Outcome = "accepted"
	OutcomeRejected   Outcome = "rejected"
	OutcomeFailed     Outcome = "failed"
)

// Event is one audit row.
type Event struct {
	ID        int64
	RequestID string
	Step      Step
	Outcome   Outcome
	ErrorKind string
	CreatedAt time.Time
}

// Recorder persists audit events.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
	Close() error
}

type nopRecorder struct{}

// NewNopRecorder returns a Recorder that drops every event.
func NewNopRecorder() Recorder { return nopRecorder{} }

func (nopRecorder) Record(context.Context, Event) error { return nil }
func (nopRecorder) Close() error                        { return nil }
