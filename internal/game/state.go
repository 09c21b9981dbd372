// Package game is the authoritative rule engine for the wheel board game.
// Every transition is a pure function of (state, caller, action, timestamp):
// no wall clock, no I/O, and no randomness beyond the seeded dice stream
// carried inside the state, so that independent re-execution, including
// inside a proving environment, reproduces results bit-for-bit.
package game

import (
	"slices"

	"github.com/lox/wheelhouse/internal/dice"
)

// Identity is the caller identity attached to every action.
type Identity string

// ContractName names an external minigame sub-contract.
type ContractName string

// LaneID routes a game instance on the ledger; opaque to game logic.
type LaneID string

const (
	// Rounds caps how many betting rounds a game runs before the final
	// minigame settles it.
	Rounds = 10

	// MaxPlayersPerGame is the registration cap.
	MaxPlayersPerGame = 20

	// MaxDeposit bounds the initial buy-in.
	MaxDeposit = 10_000_000

	// MissedBetPenalty is deducted from a player with coins who let the
	// betting window lapse (outside round 0 and all-or-nothing rounds,
	// which zero the balance instead).
	MissedBetPenalty = 10

	// WheelSegments is the number of distinct wheel outcomes.
	WheelSegments = 5

	// BettingWindowMillis is how long a betting round stays open.
	BettingWindowMillis = 30_000

	// RegistrationWindowMillis is how long registration stays open before
	// the game may start short of the player cap.
	RegistrationWindowMillis = 55_000

	// BackendStallMillis lets the backend force-end a game idle this long.
	BackendStallMillis = 2 * 60 * 1000

	// AnyoneStallMillis lets anyone force-end a game idle this long.
	AnyoneStallMillis = 10 * 60 * 1000
)

// Dice bounds for the on-board die faces.
const (
	diceMin = 1
	diceMax = 10
)

// Player is one registered participant. Players are never removed; a player
// whose coins reach zero is out of play but stays in the list for the
// record. The coin balance is clamped at zero, never negative.
type Player struct {
	ID         Identity `cbor:"id"`
	Name       string   `cbor:"name"`
	Position   int      `cbor:"position"`
	Coins      int64    `cbor:"coins"`
	UsedTokens []string `cbor:"used_tokens"`
}

// SetupEntry is one line of the bettor manifest handed to a minigame.
type SetupEntry struct {
	PlayerID Identity `cbor:"player_id"`
	Name     string   `cbor:"name"`
	Bet      uint64   `cbor:"bet"`
}

// MinigameSetup is the ordered bettor manifest. A minigame must start with
// exactly this list, order included.
type MinigameSetup []SetupEntry

// Equal reports whether both manifests match in order and content.
func (m MinigameSetup) Equal(other MinigameSetup) bool {
	return slices.Equal(m, other)
}

// PlayerMinigameResult is one player's signed coin delta from a minigame.
type PlayerMinigameResult struct {
	PlayerID   Identity `cbor:"player_id"`
	CoinsDelta int64    `cbor:"coins_delta"`
}

// MinigameResult is an external minigame's verdict, attributed to the
// contract that produced it.
type MinigameResult struct {
	Contract      ContractName           `cbor:"contract"`
	PlayerResults []PlayerMinigameResult `cbor:"player_results"`
}

// GameState is the entire authoritative game. It serializes through the
// deterministic codec and must round-trip byte-identically: the proving
// environment re-derives state purely from this blob plus the action stream.
type GameState struct {
	Players      []Player            `cbor:"players"`
	MaxPlayers   int                 `cbor:"max_players"`
	Minigames    []ContractName      `cbor:"minigames"`
	Dice         dice.Dice           `cbor:"dice"`
	Phase        Phase               `cbor:"phase"`
	RoundStarted uint64              `cbor:"round_started_at"`
	Round        int                 `cbor:"round"`
	Bets         map[Identity]uint64 `cbor:"bets"`
	AllOrNothing bool                `cbor:"all_or_nothing"`

	// Operational metadata: kept across resets so the same instance can
	// host one game after another.
	BackendID       Identity `cbor:"backend_id"`
	LastInteraction uint64   `cbor:"last_interaction_time"`
	LaneID          LaneID   `cbor:"lane_id"`
}

// New creates a fresh instance owned by the given backend identity. The
// instance starts at GameOver; an Initialize action brings it to life.
func New(backend Identity, lane LaneID) *GameState {
	s := &GameState{BackendID: backend, LaneID: lane}
	s.Reset(nil, 0)
	return s
}

// Reset clears players, bets and counters for a new game while preserving
// the backend identity, lane and last-interaction stamp. The dice stream is
// rewound to the given seed; this is the only place reseeding happens.
func (s *GameState) Reset(minigames []ContractName, seed uint64) {
	*s = GameState{
		Players:      make([]Player, 0, MaxPlayersPerGame),
		MaxPlayers:   MaxPlayersPerGame,
		Minigames:    minigames,
		Dice:         dice.New(diceMin, diceMax, seed),
		Phase:        phase(GameOver),
		Bets:         make(map[Identity]uint64),
		AllOrNothing: false,

		BackendID:       s.BackendID,
		LastInteraction: s.LastInteraction,
		LaneID:          s.LaneID,
	}
}

// IsRegistered reports whether the caller is a player still holding coins.
func (s *GameState) IsRegistered(caller Identity) bool {
	for i := range s.Players {
		if s.Players[i].ID == caller && s.Players[i].Coins > 0 {
			return true
		}
	}
	return false
}

// MinigameSetup builds the ordered bettor manifest: every ledger entry whose
// player still holds coins, in sorted identity order. Minigame sub-contracts
// receive this list and their submitted roster is later matched against it.
func (s *GameState) MinigameSetup() MinigameSetup {
	setup := make(MinigameSetup, 0, len(s.Bets))
	for _, id := range s.sortedBettors() {
		i, ok := s.findPlayer(id)
		if !ok || s.Players[i].Coins <= 0 {
			continue
		}
		setup = append(setup, SetupEntry{
			PlayerID: id,
			Name:     s.Players[i].Name,
			Bet:      s.Bets[id],
		})
	}
	return setup
}

// TotalCoins sums every balance; penalties and clamps aside, actions must
// conserve it.
func (s *GameState) TotalCoins() int64 {
	var total int64
	for i := range s.Players {
		total += s.Players[i].Coins
	}
	return total
}

// sortedBettors returns the bet ledger keys in sorted identity order, which
// fixes the iteration order everywhere the ledger is walked.
func (s *GameState) sortedBettors() []Identity {
	ids := make([]Identity, 0, len(s.Bets))
	for id := range s.Bets {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *GameState) findPlayer(id Identity) (int, bool) {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

// activePlayerCount counts players still holding coins.
func (s *GameState) activePlayerCount() int {
	n := 0
	for i := range s.Players {
		if s.Players[i].Coins > 0 {
			n++
		}
	}
	return n
}

// updateCoins applies a signed delta to a player's balance, clamped at
// zero, and records the change in the event log.
func (s *GameState) updateCoins(idx int, delta int64, events *[]Event) {
	p := &s.Players[idx]
	p.Coins = max(p.Coins+delta, 0)
	*events = append(*events, coinsChangedEvent(p.ID, delta))
}

// checkGameOver applies the settlement policy after any coin change: a sole
// remaining player with coins (in a game of more than one) wins and the game
// moves to rewards distribution; nobody left with coins ends the game with
// no winner. Returns true when it fired, short-circuiting the transition in
// progress.
func (s *GameState) checkGameOver(events *[]Event) bool {
	var withCoins []*Player
	for i := range s.Players {
		if s.Players[i].Coins > 0 {
			withCoins = append(withCoins, &s.Players[i])
		}
	}
	switch {
	case len(withCoins) == 1 && len(s.Players) > 1:
		winner := withCoins[0]
		*events = append(*events, gameEndedEvent(winner.ID, winner.Coins))
		s.Phase = phase(RewardsDistribution)
		return true
	case len(withCoins) == 0:
		*events = append(*events, gameEndedEvent("", 0))
		s.Phase = phase(GameOver)
		return true
	default:
		return false
	}
}
