package game

import "errors"

// Every rejection wraps one of these sentinels so callers can classify a
// failure with errors.Is while still getting a human-readable reason. A
// rejected action never leaves partial state behind.
var (
	// ErrPhaseMismatch covers every (phase, action) pair the transition
	// table does not list.
	ErrPhaseMismatch = errors.New("action not valid in current phase")

	// ErrUnauthorized is returned when the caller may not perform the
	// action, e.g. a non-backend caller force-ending a live game.
	ErrUnauthorized = errors.New("caller not authorized")

	// ErrCapacity is returned when registration is full.
	ErrCapacity = errors.New("game is full")

	// ErrDuplicate covers identity, name, bet and idempotency-token reuse.
	ErrDuplicate = errors.New("duplicate")

	// ErrRange is returned for amounts outside their allowed bounds.
	ErrRange = errors.New("amount out of range")

	// ErrTiming is returned for actions attempted outside their window.
	ErrTiming = errors.New("outside allowed time window")

	// ErrConsistency is returned when supplied data contradicts the state,
	// e.g. a minigame manifest mismatch or an unknown player identity.
	ErrConsistency = errors.New("inconsistent input")

	// ErrInvariant flags conditions a correctly driven state machine can
	// never reach. Treat an occurrence as fatal, not retryable.
	ErrInvariant = errors.New("invariant violation")
)
