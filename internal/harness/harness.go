// Package harness is the opaque execution boundary the proving environment
// wraps. One call carries one action against one serialized state; the
// harness decodes, runs the transition, and re-encodes whatever state must
// be committed. A rejected action is not an execution failure: the output
// carries the unchanged state plus the rejection, and the prover commits
// that state like any other.
package harness

import (
	"bytes"
	"fmt"

	"github.com/lox/wheelhouse/internal/game"
)

// Input is the decoded argument to Execute.
type Input struct {
	State     []byte        `cbor:"state"`
	Caller    game.Identity `cbor:"caller"`
	Token     string        `cbor:"token,omitempty"`
	Action    game.Action   `cbor:"action"`
	Timestamp uint64        `cbor:"timestamp"`
}

// Output is the encoded result of Execute. Error is a string because the
// output crosses the serialization boundary; callers that need the category
// match on the engine's sentinel messages upstream, not here.
type Output struct {
	State  []byte       `cbor:"state"`
	Events []game.Event `cbor:"events,omitempty"`
	Error  string       `cbor:"error,omitempty"`
}

// Execute runs one transition. It returns an error only when the blob
// itself cannot be decoded or the result cannot be encoded; a rejected
// action is reported inside the Output with the input state committed
// unchanged.
func Execute(blob []byte) ([]byte, error) {
	var in Input
	if err := game.Unmarshal(blob, &in); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}

	var state game.GameState
	if err := state.UnmarshalBinary(in.State); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	var out Output
	events, err := state.ProcessAction(in.Caller, in.Token, in.Action, in.Timestamp)
	if err != nil {
		out.Error = err.Error()
	}
	out.Events = events

	committed, err := state.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	out.State = committed

	encoded, err := game.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	return encoded, nil
}

// EncodeInput builds an Execute blob. The runner and the replay tool are
// the only producers; it lives here so the framing stays in one place.
func EncodeInput(state *game.GameState, caller game.Identity, token string, action game.Action, timestamp uint64) ([]byte, error) {
	stateBlob, err := state.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return game.Marshal(Input{
		State:     stateBlob,
		Caller:    caller,
		Token:     token,
		Action:    action,
		Timestamp: timestamp,
	})
}

// DecodeOutput parses an Execute result blob.
func DecodeOutput(blob []byte) (*Output, error) {
	var out Output
	if err := game.Unmarshal(blob, &out); err != nil {
		return nil, fmt.Errorf("decode output: %w", err)
	}
	return &out, nil
}

// Record is one executed harness call: the input blob and the output blob
// the executor committed for it. A log of records is sufficient to audit a
// whole game.
type Record struct {
	Input  []byte `cbor:"input"`
	Output []byte `cbor:"output"`
}

// EncodeRecords serializes a record log for storage.
func EncodeRecords(records []Record) ([]byte, error) {
	return game.Marshal(records)
}

// DecodeRecords parses a stored record log.
func DecodeRecords(blob []byte) ([]Record, error) {
	var records []Record
	if err := game.Unmarshal(blob, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// Verify re-executes every recorded input and checks the committed output
// matches byte for byte. This is the independent re-execution check the
// proving environment performs.
func Verify(records []Record) error {
	for i, rec := range records {
		out, err := Execute(rec.Input)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if !bytes.Equal(out, rec.Output) {
			return fmt.Errorf("record %d: committed output does not match re-execution", i)
		}
	}
	return nil
}
