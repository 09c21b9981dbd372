package game

// ActionKind enumerates every action the engine understands.
type ActionKind uint8

const (
	ActionEndGame ActionKind = iota
	ActionInitialize
	ActionRegisterPlayer
	ActionStartGame
	ActionPlaceBet
	ActionSpinWheel
	ActionStartMinigame
	ActionEndMinigame
	ActionEndTurn
	ActionDistributeRewards
)

func (k ActionKind) String() string {
	return [...]string{
		"end_game", "initialize", "register_player", "start_game",
		"place_bet", "spin_wheel", "start_minigame", "end_minigame",
		"end_turn", "distribute_rewards",
	}[k]
}

// Action is one tagged request against the state machine. Only the fields
// belonging to the Kind are populated; the struct is flat so it serializes
// through the same deterministic codec as the state itself.
type Action struct {
	Kind ActionKind `cbor:"kind"`

	// Initialize
	Minigames []ContractName `cbor:"minigames,omitempty"`
	Seed      uint64         `cbor:"seed,omitempty"`

	// RegisterPlayer
	Name    string `cbor:"name,omitempty"`
	Deposit uint64 `cbor:"deposit,omitempty"`

	// PlaceBet
	Amount uint64 `cbor:"amount,omitempty"`

	// StartMinigame
	Minigame ContractName  `cbor:"minigame,omitempty"`
	Players  MinigameSetup `cbor:"players,omitempty"`

	// EndMinigame
	Result *MinigameResult `cbor:"result,omitempty"`
}

// EndGame force-terminates a stalled or finished game.
func EndGame() Action {
	return Action{Kind: ActionEndGame}
}

// Initialize resets a finished game with a fresh minigame list and seed.
func Initialize(minigames []ContractName, seed uint64) Action {
	return Action{Kind: ActionInitialize, Minigames: minigames, Seed: seed}
}

// RegisterPlayer joins the caller to the game with an initial deposit.
func RegisterPlayer(name string, deposit uint64) Action {
	return Action{Kind: ActionRegisterPlayer, Name: name, Deposit: deposit}
}

// StartGame closes registration and opens the first betting round.
func StartGame() Action {
	return Action{Kind: ActionStartGame}
}

// PlaceBet wagers part of the caller's balance for the current round.
func PlaceBet(amount uint64) Action {
	return Action{Kind: ActionPlaceBet, Amount: amount}
}

// SpinWheel draws the wheel outcome, penalizing no-shows first when the
// betting window lapsed with bets outstanding.
func SpinWheel() Action {
	return Action{Kind: ActionSpinWheel}
}

// StartMinigameAction hands the bettor manifest to a minigame sub-contract.
func StartMinigameAction(minigame ContractName, players MinigameSetup) Action {
	return Action{Kind: ActionStartMinigame, Minigame: minigame, Players: players}
}

// EndMinigameAction reports a minigame verdict back into the game.
func EndMinigameAction(result MinigameResult) Action {
	return Action{Kind: ActionEndMinigame, Result: &result}
}

// EndTurn is part of the published action vocabulary but no phase accepts
// it; submitting one always reports a phase mismatch.
func EndTurn() Action {
	return Action{Kind: ActionEndTurn}
}

// DistributeRewards acknowledges settlement and closes the game.
func DistributeRewards() Action {
	return Action{Kind: ActionDistributeRewards}
}
