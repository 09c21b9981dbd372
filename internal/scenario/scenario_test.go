package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/wheelhouse/internal/game"
)

const sample = `
game {
  seed      = 42
  minigames = ["dice-duel", "coin-rush"]
}

player "Alice" {
  deposit = 100
}

player "Bob" {
  deposit  = 50
  identity = "bob-7"
}

sim {
  bet_amount = 25
}
`

func TestParseScenario(t *testing.T) {
	s, err := Parse([]byte(sample), "sample.hcl")
	require.NoError(t, err)

	assert.Equal(t, uint64(42), s.Game.Seed)
	assert.Equal(t, []game.ContractName{"dice-duel", "coin-rush"}, s.Minigames())
	require.Len(t, s.Players, 2)
	assert.Equal(t, "alice", s.Players[0].Identity, "identity defaults to the lowercase name")
	assert.Equal(t, "bob-7", s.Players[1].Identity)
	assert.Equal(t, uint64(25), s.Sim.BetAmount)
	assert.Equal(t, 1000, s.Sim.MaxActions, "stall guard gets a default")
}

func TestParseAppliesGameDefaults(t *testing.T) {
	src := `
game {
  seed = 7
}
player "A" { deposit = 10 }
player "B" { deposit = 10 }
`
	s, err := Parse([]byte(src), "min.hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{"dice-duel"}, s.Game.Minigames)
	assert.Equal(t, "backend", s.Game.Backend)
	assert.Equal(t, "lane-1", s.Game.Lane)
	assert.Equal(t, uint64(10), s.Sim.BetAmount)
}

func TestValidateRejectsSinglePlayer(t *testing.T) {
	src := `
game { seed = 1 }
player "Solo" { deposit = 10 }
`
	_, err := Parse([]byte(src), "solo.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least two players")
}

func TestValidateRejectsDuplicateNames(t *testing.T) {
	src := `
game { seed = 1 }
player "Twin" { deposit = 10 }
player "Twin" { deposit = 10 }
`
	_, err := Parse([]byte(src), "twins.hcl")
	require.Error(t, err)
}

func TestValidateRejectsBadDeposit(t *testing.T) {
	src := `
game { seed = 1 }
player "A" { deposit = 0 }
player "B" { deposit = 10 }
`
	_, err := Parse([]byte(src), "broke.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deposit")
}

func TestParseRejectsMalformedHCL(t *testing.T) {
	_, err := Parse([]byte(`game {`), "broken.hcl")
	require.Error(t, err)
}

func TestDefaultScenarioIsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())
	assert.Len(t, s.Players, 2)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("does-not-exist.hcl")
	require.Error(t, err)
}
