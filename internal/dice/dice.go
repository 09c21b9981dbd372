// Package dice implements the deterministic random stream that drives the
// wheel and every shuffle in a game. Reproducibility across independent
// re-execution is the only hard requirement, so the generator is a plain
// xorshift64* rather than anything cryptographic: anyone who knows the seed
// can predict the stream, and that is fine because the seed is committed
// alongside the state.
package dice

const starMultiplier = 0x2545f4914f6cdd1d

// Dice is a seeded pseudo-random stream with fully serializable state.
// It travels inside the game state blob so that re-execution from a stored
// snapshot resumes the exact same sequence. Min and Max bound Face rolls;
// Roll exposes the raw 64-bit draw for callers that reduce it themselves.
type Dice struct {
	Min   uint64 `cbor:"min"`
	Max   uint64 `cbor:"max"`
	Seed  uint64 `cbor:"seed"`
	State uint64 `cbor:"state"`
}

// New returns a Dice producing faces in [min, max], with its stream position
// derived from seed. The same (min, max, seed) always yields the same stream.
func New(min, max, seed uint64) Dice {
	return Dice{Min: min, Max: max, Seed: seed, State: initialState(seed)}
}

// Reseed rewinds the stream to the start position for the given seed.
func (d *Dice) Reseed(seed uint64) {
	d.Seed = seed
	d.State = initialState(seed)
}

// Roll returns the next raw 64-bit draw from the stream. The full width is
// exposed so reductions like Roll()%5 stay free of measurable modulo bias.
func (d *Dice) Roll() uint64 {
	return d.next()
}

// Face returns the next draw reduced to [Min, Max].
func (d *Dice) Face() uint64 {
	span := d.Max - d.Min + 1
	return d.Min + d.next()%span
}

// Fork returns an independent stream seeded from the next draw of this one.
// The fork consumes one draw, so forking is itself a deterministic,
// replayable operation.
func (d *Dice) Fork() Dice {
	return New(d.Min, d.Max, d.next())
}

// Shuffle permutes s in place with a Fisher-Yates pass consuming the stream.
func (d *Dice) Shuffle(s []int) {
	for i := len(s) - 1; i > 0; i-- {
		j := int(d.next() % uint64(i+1))
		s[i], s[j] = s[j], s[i]
	}
}

// next advances the xorshift64* state and returns the scrambled output.
func (d *Dice) next() uint64 {
	x := d.State
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	d.State = x
	return x * starMultiplier
}

// initialState pushes the seed through a splitmix-style finalizer so that
// small consecutive seeds still land far apart in the state space. The OR
// keeps the state nonzero, which xorshift requires.
func initialState(seed uint64) uint64 {
	return mix(seed) | 1
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
