// Package simulator plays entire games against the engine from a scenario
// file. It stands in for every external collaborator at once: the players,
// the backend, and the minigame sub-contracts, which are stubbed with a
// winner-takes-the-wagers resolution drawn from the simulator's own dice
// stream. Because every input is derived from the scenario, two runs of the
// same scenario must produce identical event logs and final states.
package simulator

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/wheelhouse/internal/dice"
	"github.com/lox/wheelhouse/internal/game"
	"github.com/lox/wheelhouse/internal/harness"
	"github.com/lox/wheelhouse/internal/scenario"
)

// ErrDiverged is returned by VerifyDeterminism when two runs of the same
// scenario disagree.
var ErrDiverged = errors.New("runs diverged")

// Result summarizes one played game. Records holds the complete harness
// call log, ready for replay verification.
type Result struct {
	Events     []game.Event
	State      *game.GameState
	Records    []harness.Record
	Actions    int
	Winner     game.Identity
	FinalCoins int64
}

// Simulator drives one scenario.
type Simulator struct {
	scn    *scenario.Scenario
	logger *log.Logger
}

// New creates a simulator for the given scenario.
func New(scn *scenario.Scenario, logger *log.Logger) *Simulator {
	return &Simulator{scn: scn, logger: logger.WithPrefix("sim")}
}

// Play runs the scenario from registration to game over and returns the
// full event log. The timestamps are virtual: the simulator keeps its own
// millisecond clock and moves it exactly as far as each window requires.
func (s *Simulator) Play() (*Result, error) {
	scn := s.scn
	backend := game.Identity(scn.Game.Backend)
	state := game.New(backend, game.LaneID(scn.Game.Lane))

	// The stub minigame resolution stream. Forked from a base stream so the
	// engine's own dice and the stub's stay independent.
	base := dice.New(1, 10, scn.Game.Seed)
	minigameDice := base.Fork()

	res := &Result{}
	now := uint64(1_000_000)

	// Every action goes through the execution harness rather than straight
	// into the engine, so a simulation exercises the same serialize,
	// execute, commit cycle the proving environment runs, and the record
	// log it leaves behind can be independently replayed.
	apply := func(caller game.Identity, action game.Action) error {
		if res.Actions >= scn.Sim.MaxActions {
			return fmt.Errorf("simulation exceeded %d actions, aborting", scn.Sim.MaxActions)
		}
		res.Actions++

		before := state.TotalCoins()
		in, err := harness.EncodeInput(state, caller, "", action, now)
		if err != nil {
			return err
		}
		blob, err := harness.Execute(in)
		if err != nil {
			return err
		}
		out, err := harness.DecodeOutput(blob)
		if err != nil {
			return err
		}
		res.Records = append(res.Records, harness.Record{Input: in, Output: blob})

		if err := state.UnmarshalBinary(out.State); err != nil {
			return fmt.Errorf("decode committed state: %w", err)
		}
		if out.Error != "" {
			return fmt.Errorf("%s by %s rejected: %s", action.Kind, caller, out.Error)
		}
		if after := state.TotalCoins(); after > before && action.Kind != game.ActionRegisterPlayer {
			return fmt.Errorf("coin conservation violated by %s: %d -> %d", action.Kind, before, after)
		}
		res.Events = append(res.Events, out.Events...)
		s.logger.Debug("applied", "action", action.Kind, "caller", caller, "phase", state.Phase, "round", state.Round)
		return nil
	}

	if err := apply(backend, game.Initialize(scn.Minigames(), scn.Game.Seed)); err != nil {
		return nil, err
	}
	for _, p := range scn.Players {
		now++
		if err := apply(game.Identity(p.Identity), game.RegisterPlayer(p.Name, p.Deposit)); err != nil {
			return nil, err
		}
	}
	now = state.RoundStarted + game.RegistrationWindowMillis
	if err := apply(backend, game.StartGame()); err != nil {
		return nil, err
	}

	for state.Phase.Kind != game.GameOver {
		var err error
		switch state.Phase.Kind {
		case game.Betting:
			err = s.playBettingRound(state, apply, &now)
		case game.WheelSpin:
			err = apply(backend, game.SpinWheel())
		case game.StartMinigame, game.FinalMinigame:
			err = apply(backend, game.StartMinigameAction(state.Phase.Minigame, state.MinigameSetup()))
		case game.InMinigame:
			err = apply(backend, game.EndMinigameAction(resolveMinigame(state, &minigameDice)))
		case game.RewardsDistribution:
			err = apply(backend, game.DistributeRewards())
		default:
			return nil, fmt.Errorf("simulator stuck in phase %s", state.Phase)
		}
		if err != nil {
			return nil, err
		}
	}

	res.State = state
	for _, ev := range res.Events {
		if ev.Type == game.EventGameEnded && ev.WinnerID != "" {
			res.Winner = ev.WinnerID
			res.FinalCoins = ev.FinalCoins
		}
	}
	return res, nil
}

// playBettingRound places one bet per funded player. All-or-nothing rounds
// force the full balance; otherwise the configured amount is capped at what
// the player still holds.
func (s *Simulator) playBettingRound(state *game.GameState, apply func(game.Identity, game.Action) error, now *uint64) error {
	*now = state.RoundStarted + 1
	for _, p := range state.Players {
		if p.Coins <= 0 {
			continue
		}
		amount := s.scn.Sim.BetAmount
		if state.AllOrNothing || amount > uint64(p.Coins) {
			amount = uint64(p.Coins)
		}
		if err := apply(p.ID, game.PlaceBet(amount)); err != nil {
			return err
		}
		*now++
	}
	return nil
}

// resolveMinigame is the stub sub-contract: it draws one winner from the
// manifest and hands them every other wager. Losers never drop below zero
// because a wager was validated against their balance when placed.
func resolveMinigame(state *game.GameState, d *dice.Dice) game.MinigameResult {
	setup := state.MinigameSetup()
	result := game.MinigameResult{Contract: state.Phase.Minigame}
	if len(setup) == 0 {
		return result
	}
	winner := int(d.Roll() % uint64(len(setup)))

	var pot int64
	for i, entry := range setup {
		if i == winner {
			continue
		}
		pot += int64(entry.Bet)
		result.PlayerResults = append(result.PlayerResults, game.PlayerMinigameResult{
			PlayerID:   entry.PlayerID,
			CoinsDelta: -int64(entry.Bet),
		})
	}
	result.PlayerResults = append(result.PlayerResults, game.PlayerMinigameResult{
		PlayerID:   setup[winner].PlayerID,
		CoinsDelta: pot,
	})
	return result
}

// VerifyDeterminism plays the scenario twice concurrently and checks that
// both runs land on the same event count and an identical final state blob.
func (s *Simulator) VerifyDeterminism(ctx context.Context) error {
	results := make([]*Result, 2)
	g, _ := errgroup.WithContext(ctx)
	for i := range results {
		g.Go(func() error {
			r, err := s.Play()
			results[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	a, b := results[0], results[1]
	if len(a.Events) != len(b.Events) {
		return fmt.Errorf("%w: %d events vs %d", ErrDiverged, len(a.Events), len(b.Events))
	}
	blobA, err := a.State.MarshalBinary()
	if err != nil {
		return err
	}
	blobB, err := b.State.MarshalBinary()
	if err != nil {
		return err
	}
	if !bytes.Equal(blobA, blobB) {
		return fmt.Errorf("%w: final state blobs differ", ErrDiverged)
	}
	return nil
}
