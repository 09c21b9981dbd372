package game

// EventType identifies one entry in the event log.
type EventType string

// The published event vocabulary. Listeners (frontends, indexers) switch on
// these; DiceRolled, PlayerMoved and TurnEnded are reserved for minigame
// sub-contract streams and are not produced by the core transition function.
const (
	EventDiceRolled            EventType = "dice_rolled"
	EventPlayerMoved           EventType = "player_moved"
	EventCoinsChanged          EventType = "coins_changed"
	EventMinigameReady         EventType = "minigame_ready"
	EventMinigameStarted       EventType = "minigame_started"
	EventMinigameEnded         EventType = "minigame_ended"
	EventTurnEnded             EventType = "turn_ended"
	EventGameEnded             EventType = "game_ended"
	EventGameInitialized       EventType = "game_initialized"
	EventPlayerRegistered      EventType = "player_registered"
	EventGameStarted           EventType = "game_started"
	EventBetPlaced             EventType = "bet_placed"
	EventWheelSpun             EventType = "wheel_spun"
	EventPlayersSwappedCoins   EventType = "players_swapped_coins"
	EventAllOrNothingActivated EventType = "all_or_nothing_activated"
)

// Event is one observational entry in the per-action event log. Events never
// mutate state; they describe what the transition already did. The struct is
// a flat tagged union so the whole log serializes with the deterministic
// codec, with only the fields relevant to Type populated.
type Event struct {
	Type        EventType       `cbor:"type"`
	PlayerID    Identity        `cbor:"player_id,omitempty"`
	Name        string          `cbor:"name,omitempty"`
	Amount      int64           `cbor:"amount,omitempty"`
	Minigame    ContractName    `cbor:"minigame,omitempty"`
	Result      *MinigameResult `cbor:"result,omitempty"`
	WinnerID    Identity        `cbor:"winner_id,omitempty"`
	FinalCoins  int64           `cbor:"final_coins,omitempty"`
	Seed        uint64          `cbor:"seed,omitempty"`
	PlayerCount int             `cbor:"player_count,omitempty"`
	Round       int             `cbor:"round,omitempty"`
	Outcome     uint8           `cbor:"outcome,omitempty"`
	Swaps       [][2]Identity   `cbor:"swaps,omitempty"`
}

func coinsChangedEvent(id Identity, delta int64) Event {
	return Event{Type: EventCoinsChanged, PlayerID: id, Amount: delta}
}

func minigameReadyEvent(m ContractName) Event {
	return Event{Type: EventMinigameReady, Minigame: m}
}

func minigameStartedEvent(m ContractName) Event {
	return Event{Type: EventMinigameStarted, Minigame: m}
}

func minigameEndedEvent(result *MinigameResult) Event {
	return Event{Type: EventMinigameEnded, Result: result}
}

func gameEndedEvent(winner Identity, finalCoins int64) Event {
	return Event{Type: EventGameEnded, WinnerID: winner, FinalCoins: finalCoins}
}

func gameInitializedEvent(seed uint64) Event {
	return Event{Type: EventGameInitialized, Seed: seed}
}

func playerRegisteredEvent(name string, id Identity) Event {
	return Event{Type: EventPlayerRegistered, Name: name, PlayerID: id}
}

func gameStartedEvent(playerCount int) Event {
	return Event{Type: EventGameStarted, PlayerCount: playerCount}
}

func betPlacedEvent(id Identity, amount uint64) Event {
	return Event{Type: EventBetPlaced, PlayerID: id, Amount: int64(amount)}
}

// wheelSpunEvent carries the round for convenience on the frontend.
func wheelSpunEvent(round int, outcome uint8) Event {
	return Event{Type: EventWheelSpun, Round: round, Outcome: outcome}
}

func playersSwappedCoinsEvent(swaps [][2]Identity) Event {
	return Event{Type: EventPlayersSwappedCoins, Swaps: swaps}
}

func allOrNothingActivatedEvent() Event {
	return Event{Type: EventAllOrNothingActivated}
}
