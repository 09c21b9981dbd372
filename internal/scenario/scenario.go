// Package scenario loads simulation scenarios from HCL files. A scenario
// describes one game: the seed and minigame roster, the players who join,
// and how the simulated players behave.
package scenario

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/wheelhouse/internal/game"
)

// Scenario represents a complete scenario file
type Scenario struct {
	Game    GameSettings   `hcl:"game,block"`
	Players []PlayerConfig `hcl:"player,block"`
	Sim     *SimSettings   `hcl:"sim,block"`
}

// GameSettings contains game-level configuration
type GameSettings struct {
	Seed      uint64   `hcl:"seed"`
	Minigames []string `hcl:"minigames,optional"`
	Backend   string   `hcl:"backend,optional"`
	Lane      string   `hcl:"lane,optional"`
}

// PlayerConfig defines one simulated player
type PlayerConfig struct {
	Name     string `hcl:"name,label"`
	Deposit  uint64 `hcl:"deposit"`
	Identity string `hcl:"identity,optional"`
}

// SimSettings controls how the simulated players behave
type SimSettings struct {
	// BetAmount is the wager each player places every round. All-or-nothing
	// rounds override it with the full balance.
	BetAmount uint64 `hcl:"bet_amount,optional"`
	// MaxActions caps the simulation as a stall guard.
	MaxActions int `hcl:"max_actions,optional"`
}

// Default returns a ready-to-run two-player scenario
func Default() *Scenario {
	s := &Scenario{
		Game: GameSettings{Seed: 1},
		Players: []PlayerConfig{
			{Name: "Alice", Deposit: 100},
			{Name: "Bob", Deposit: 100},
		},
	}
	s.applyDefaults()
	return s
}

// Load loads a scenario from an HCL file
func Load(filename string) (*Scenario, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("scenario file %s does not exist", filename)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var s Scenario
	diags = gohcl.DecodeBody(file.Body, nil, &s)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Parse decodes a scenario from in-memory HCL source
func Parse(src []byte, filename string) (*Scenario, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}

	var s Scenario
	diags = gohcl.DecodeBody(file.Body, nil, &s)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) applyDefaults() {
	if len(s.Game.Minigames) == 0 {
		s.Game.Minigames = []string{"dice-duel"}
	}
	if s.Game.Backend == "" {
		s.Game.Backend = "backend"
	}
	if s.Game.Lane == "" {
		s.Game.Lane = "lane-1"
	}
	for i := range s.Players {
		if s.Players[i].Identity == "" {
			s.Players[i].Identity = strings.ToLower(s.Players[i].Name)
		}
	}
	if s.Sim == nil {
		s.Sim = &SimSettings{}
	}
	if s.Sim.BetAmount == 0 {
		s.Sim.BetAmount = 10
	}
	if s.Sim.MaxActions == 0 {
		s.Sim.MaxActions = 1000
	}
}

// Validate validates the scenario
func (s *Scenario) Validate() error {
	if len(s.Players) < 2 {
		return fmt.Errorf("at least two players must be configured")
	}
	if len(s.Players) > game.MaxPlayersPerGame {
		return fmt.Errorf("at most %d players can be configured", game.MaxPlayersPerGame)
	}

	names := make(map[string]bool)
	identities := make(map[string]bool)
	for _, p := range s.Players {
		if names[p.Name] {
			return fmt.Errorf("player %s: duplicate name", p.Name)
		}
		names[p.Name] = true
		if identities[p.Identity] {
			return fmt.Errorf("player %s: duplicate identity %s", p.Name, p.Identity)
		}
		identities[p.Identity] = true
		if p.Deposit == 0 || p.Deposit > game.MaxDeposit {
			return fmt.Errorf("player %s: deposit must be between 1 and %d", p.Name, game.MaxDeposit)
		}
	}

	return nil
}

// Minigames returns the minigame roster as contract names
func (s *Scenario) Minigames() []game.ContractName {
	out := make([]game.ContractName, len(s.Game.Minigames))
	for i, m := range s.Game.Minigames {
		out[i] = game.ContractName(m)
	}
	return out
}
