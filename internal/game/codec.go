package game

import (
	"github.com/fxamacker/cbor/v2"
)

// The state blob must round-trip byte-identically: the proving environment
// commits to it, and two honest re-executions have to land on the same
// bytes. CBOR core deterministic encoding fixes map ordering and number
// widths, so encode(decode(blob)) == blob holds structurally.
//
// BinaryMarshaler dispatch is disabled in both modes: GameState implements
// it for callers, and letting the codec call back into it would recurse.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	encOpts := cbor.CoreDetEncOptions()
	encOpts.BinaryMarshaler = cbor.BinaryMarshalerNone
	em, err := encOpts.EncMode()
	if err != nil {
		panic("cbor encode mode: " + err.Error())
	}
	encMode = em

	decOpts := cbor.DecOptions{BinaryUnmarshaler: cbor.BinaryUnmarshalerNone}
	dm, err := decOpts.DecMode()
	if err != nil {
		panic("cbor decode mode: " + err.Error())
	}
	decMode = dm
}

// Marshal encodes any engine value with the deterministic codec.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes a value produced by Marshal.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// MarshalBinary implements encoding.BinaryMarshaler for the persisted state.
func (s *GameState) MarshalBinary() ([]byte, error) {
	return encMode.Marshal(s)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *GameState) UnmarshalBinary(data []byte) error {
	return decMode.Unmarshal(data, s)
}
