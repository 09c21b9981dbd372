package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/wheelhouse/internal/game"
)

const t0 = uint64(1_000_000)

func execute(t *testing.T, state *game.GameState, caller game.Identity, action game.Action, ts uint64) *Output {
	t.Helper()
	in, err := EncodeInput(state, caller, "", action, ts)
	require.NoError(t, err)
	blob, err := Execute(in)
	require.NoError(t, err)
	out, err := DecodeOutput(blob)
	require.NoError(t, err)
	return out
}

func TestExecuteAppliesAction(t *testing.T) {
	state := game.New("backend", "lane-1")
	out := execute(t, state, "backend", game.Initialize([]game.ContractName{"dice-duel"}, 42), t0)

	require.Empty(t, out.Error)
	require.Len(t, out.Events, 1)
	assert.Equal(t, game.EventGameInitialized, out.Events[0].Type)

	var next game.GameState
	require.NoError(t, next.UnmarshalBinary(out.State))
	assert.Equal(t, game.Registration, next.Phase.Kind)
}

func TestExecuteCommitsUnchangedStateOnRejection(t *testing.T) {
	state := game.New("backend", "lane-1")
	before, err := state.MarshalBinary()
	require.NoError(t, err)

	// StartGame is never valid while the instance is idle.
	out := execute(t, state, "backend", game.StartGame(), t0)

	assert.NotEmpty(t, out.Error)
	assert.Empty(t, out.Events)
	assert.Equal(t, before, out.State, "a rejected action must commit the input state verbatim")
}

func TestExecuteChainsAcrossCalls(t *testing.T) {
	state := game.New("backend", "lane-1")
	out := execute(t, state, "backend", game.Initialize([]game.ContractName{"dice-duel"}, 42), t0)

	// Feed the committed state into the next call, as the prover does.
	var next game.GameState
	require.NoError(t, next.UnmarshalBinary(out.State))
	out = execute(t, &next, "alice", game.RegisterPlayer("Alice", 100), t0+1)

	require.Empty(t, out.Error)
	var final game.GameState
	require.NoError(t, final.UnmarshalBinary(out.State))
	require.Len(t, final.Players, 1)
	assert.Equal(t, int64(100), final.Players[0].Coins)
}

func TestExecuteRejectsGarbageInput(t *testing.T) {
	_, err := Execute([]byte{0xff, 0x13, 0x37})
	assert.Error(t, err)
}

func TestRecordLogRoundTripAndVerify(t *testing.T) {
	state := game.New("backend", "lane-1")
	var records []Record

	step := func(caller game.Identity, action game.Action, ts uint64) {
		in, err := EncodeInput(state, caller, "", action, ts)
		require.NoError(t, err)
		blob, err := Execute(in)
		require.NoError(t, err)
		records = append(records, Record{Input: in, Output: blob})

		out, err := DecodeOutput(blob)
		require.NoError(t, err)
		require.NoError(t, state.UnmarshalBinary(out.State))
	}
	step("backend", game.Initialize([]game.ContractName{"dice-duel"}, 42), t0)
	step("alice", game.RegisterPlayer("Alice", 100), t0+1)
	step("bob", game.RegisterPlayer("Bob", 50), t0+2)

	encoded, err := EncodeRecords(records)
	require.NoError(t, err)
	decoded, err := DecodeRecords(encoded)
	require.NoError(t, err)
	require.NoError(t, Verify(decoded))

	// Tampering with a committed output must fail verification.
	decoded[1].Output[len(decoded[1].Output)-1] ^= 0xff
	assert.Error(t, Verify(decoded))
}

// Re-executing the identical input blob must produce the identical output
// blob; this is the property the prover depends on.
func TestExecuteIsBitwiseDeterministic(t *testing.T) {
	state := game.New("backend", "lane-1")
	in, err := EncodeInput(state, "backend", "tok", game.Initialize([]game.ContractName{"dice-duel"}, 7), t0)
	require.NoError(t, err)

	a, err := Execute(in)
	require.NoError(t, err)
	b, err := Execute(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
