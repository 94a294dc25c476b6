// Package ai contains the generation-service boundary and the model fallback
// orchestrator that walks an ordered roster of candidates until one returns a
// usable result.
package ai

import (
	"context"
	"errors"
	"time"
)

// Candidate names one backend model in the fallback roster. The roster is an
// ordered list; order encodes priority (fastest and cheapest first, most
// capable or experimental last). Duplicates are allowed.
type Candidate string

// Shape describes the expected response shape of a task.
type Shape string

const (
	// ShapeText expects free-form text (the chat task).
	ShapeText Shape = "text"
	// ShapeStructured expects a parseable analysis record (the
	// code-analysis task).
	ShapeStructured Shape = "structured"
)

// Request is an immutable task descriptor consumed by one orchestration run.
// It is constructed per incoming call and discarded afterwards.
type Request struct {
	ID     string
	Prompt string
	Shape  Shape
}

// OutcomeKind classifies one candidate attempt.
type OutcomeKind string

const (
	OutcomeSuccess        OutcomeKind = "success"
	OutcomeRateLimited    OutcomeKind = "rate_limited"
	OutcomeTransportError OutcomeKind = "transport_error"
	OutcomeSchemaInvalid  OutcomeKind = "schema_invalid"
)

// Outcome is the tagged result of a single candidate attempt. The roster
// advance policy is expressed as a match on Kind rather than a bare catch-all.
type Outcome struct {
	Candidate Candidate
	Kind      OutcomeKind
	Err       error
	Duration  time.Duration
}

// ErrRateLimited marks a quota or rate-limit exhaustion on the generation
// service. It is an expected condition: the orchestrator logs it and advances
// to the next candidate.
var ErrRateLimited = errors.New("generation quota or rate limit exhausted")

// ErrRosterExhausted is returned when every candidate failed. The wrapped
// error is the last failure observed during the walk.
var ErrRosterExhausted = errors.New("all models exhausted")

// Generator is the generation-service boundary: one call per (model, prompt)
// pair that returns generated text, ErrRateLimited, or a generic error.
type Generator interface {
	Generate(ctx context.Context, model Candidate, prompt string) (string, error)
}
