// Package runner is the local ordering layer around the engine. It feeds
// actions through the execution harness one at a time, stamping each with a
// timestamp from an injected clock, and runs the backend watchdog that
// fires the timing duties: starting the game when registration lapses,
// spinning the wheel when the betting window closes, and force-ending a
// stalled game. There is no network transport; callers submit in-process.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/wheelhouse/internal/game"
	"github.com/lox/wheelhouse/internal/harness"
)

const watchdogInterval = time.Second

// ErrRejected wraps engine rejections surfaced through the harness. The
// original sentinel is gone after serialization, so callers get the
// message, not the category.
var ErrRejected = errors.New("action rejected")

type request struct {
	caller game.Identity
	token  string
	action game.Action
	reply  chan result
}

type result struct {
	events []game.Event
	err    error
}

// Runner owns one game instance. All mutation happens on the feed loop
// goroutine; Submit and the watchdog only ever talk to it through the
// request channel, so the engine sees a single serialized action stream.
type Runner struct {
	logger  *log.Logger
	clock   quartz.Clock
	backend game.Identity

	state    *game.GameState
	requests chan request
	records  []harness.Record
}

// New creates a Runner around a fresh game instance.
func New(backend game.Identity, lane game.LaneID, logger *log.Logger, clock quartz.Clock) *Runner {
	return &Runner{
		logger:   logger.WithPrefix("runner").With("lane", lane),
		clock:    clock,
		backend:  backend,
		state:    game.New(backend, lane),
		requests: make(chan request),
	}
}

// Run drives the feed loop and the watchdog until the context is done.
// It must be running for Submit to make progress.
func (r *Runner) Run(ctx context.Context) error {
	watchdog := r.clock.NewTicker(watchdogInterval, "watchdog")
	defer watchdog.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-r.requests:
			req.reply <- r.apply(req.caller, req.token, req.action)
		case <-watchdog.C:
			r.patrol()
		}
	}
}

// Submit queues one action and waits for the engine's verdict.
func (r *Runner) Submit(ctx context.Context, caller game.Identity, token string, action game.Action) ([]game.Event, error) {
	req := request{caller: caller, token: token, action: action, reply: make(chan result, 1)}
	select {
	case r.requests <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res.events, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// apply pushes one action through the harness and adopts the committed
// state, exactly as the proving environment would.
func (r *Runner) apply(caller game.Identity, token string, action game.Action) result {
	now := uint64(r.clock.Now().UnixMilli())

	in, err := harness.EncodeInput(r.state, caller, token, action, now)
	if err != nil {
		return result{err: err}
	}
	blob, err := harness.Execute(in)
	if err != nil {
		return result{err: err}
	}
	out, err := harness.DecodeOutput(blob)
	if err != nil {
		return result{err: err}
	}

	r.records = append(r.records, harness.Record{Input: in, Output: blob})

	var next game.GameState
	if err := next.UnmarshalBinary(out.State); err != nil {
		return result{err: fmt.Errorf("decode committed state: %w", err)}
	}
	r.state = &next

	if out.Error != "" {
		r.logger.Debug("action rejected", "caller", caller, "action", action.Kind, "reason", out.Error)
		return result{err: fmt.Errorf("%w: %s", ErrRejected, out.Error)}
	}

	for _, ev := range out.Events {
		r.logger.Info("event", "type", ev.Type, "phase", r.state.Phase, "round", r.state.Round)
	}
	return result{events: out.Events}
}

// patrol is the watchdog pass: it checks the clock against the current
// phase and fires whichever backend duty is overdue. At most one action
// per tick; anything still pending waits for the next pass.
func (r *Runner) patrol() {
	now := uint64(r.clock.Now().UnixMilli())
	s := r.state

	var action game.Action
	switch {
	case s.Phase.Kind != game.GameOver && elapsed(now, s.LastInteraction) > game.BackendStallMillis:
		action = game.EndGame()
	case s.Phase.Kind == game.WheelSpin:
		action = game.SpinWheel()
	case s.Phase.Kind == game.Betting && elapsed(now, s.RoundStarted) >= game.BettingWindowMillis:
		action = game.SpinWheel()
	case s.Phase.Kind == game.Registration && len(s.Players) >= 2 && elapsed(now, s.RoundStarted) >= game.RegistrationWindowMillis:
		action = game.StartGame()
	default:
		return
	}

	r.logger.Info("watchdog firing", "action", action.Kind, "phase", s.Phase)
	if res := r.apply(r.backend, "", action); res.err != nil {
		r.logger.Warn("watchdog action rejected", "action", action.Kind, "err", res.err)
	}
}

func elapsed(now, then uint64) uint64 {
	if now < then {
		return 0
	}
	return now - then
}

// State returns the last committed state. Only safe once Run has returned
// or between synchronous Submits from a single caller.
func (r *Runner) State() *game.GameState {
	return r.state
}

// Records returns the harness call log accumulated so far.
func (r *Runner) Records() []harness.Record {
	return r.records
}
