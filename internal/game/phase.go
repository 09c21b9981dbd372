package game

import "fmt"

// PhaseKind enumerates the top-level stages of a game.
type PhaseKind uint8

const (
	Registration PhaseKind = iota
	Betting
	WheelSpin
	StartMinigame
	InMinigame
	FinalMinigame
	RewardsDistribution
	GameOver
)

func (k PhaseKind) String() string {
	return [...]string{
		"registration", "betting", "wheel_spin", "start_minigame",
		"in_minigame", "final_minigame", "rewards_distribution", "game_over",
	}[k]
}

// Phase is the single active stage of the game. The three minigame kinds
// carry the contract the stage is bound to; comparing Phase values with ==
// therefore compares both the stage and its minigame.
type Phase struct {
	Kind     PhaseKind    `cbor:"kind"`
	Minigame ContractName `cbor:"minigame,omitempty"`
}

func phase(k PhaseKind) Phase {
	return Phase{Kind: k}
}

func minigamePhase(k PhaseKind, m ContractName) Phase {
	return Phase{Kind: k, Minigame: m}
}

func (p Phase) String() string {
	if p.Minigame != "" {
		return fmt.Sprintf("%s(%s)", p.Kind, p.Minigame)
	}
	return p.Kind.String()
}
