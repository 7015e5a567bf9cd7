// Package rng provides the deterministic seeded random source shared by all
// participants of a game. Identical seeds produce identical draw sequences on
// every platform, which is what makes server-side replay and client
// reconciliation possible.
package rng

// Rng is a seeded pseudo-random generator. The seed string is expanded into
// four 32-bit words via the cyrb128 hash and advanced by the SFC32 small-state
// permutation. It is not safe for concurrent use; each game owns exactly one.
type Rng struct {
	seed       string
	a, b, c, d uint32
	callCount  int
}

// New constructs an Rng from a seed string.
func New(seed string) *Rng {
	a, b, c, d := hashSeed(seed)
	return &Rng{seed: seed, a: a, b: b, c: c, d: d}
}

// Next returns the next draw in [0, 1).
func (r *Rng) Next() float64 {
	r.callCount++
	t := r.a + r.b
	r.a = r.b ^ (r.b >> 9)
	r.b = r.c + (r.c << 3)
	r.c = (r.c << 21) | (r.c >> 11)
	r.d++
	t += r.d
	r.c += t
	return float64(t) / 4294967296
}

// NextInt returns an integer in [min, max], inclusive of both bounds.
func (r *Rng) NextInt(min, max int) int {
	return int(r.Next()*float64(max-min+1)) + min
}

// NextFloat returns a float in [min, max).
func (r *Rng) NextFloat(min, max float64) float64 {
	return r.Next()*(max-min) + min
}

// Seed returns the seed string this Rng was constructed from.
func (r *Rng) Seed() string { return r.seed }

// CallCount returns how many times Next has been called.
func (r *Rng) CallCount() int { return r.callCount }

// Snapshot is the serializable state of an Rng. Restoration replays CallCount
// draws from a fresh seed-derived state, so restore cost is O(CallCount);
// turn-bounded games keep that cheap, and it avoids persisting raw generator
// words.
type Snapshot struct {
	Seed      string `json:"seed"`
	CallCount int    `json:"callCount"`
}

// ToSnapshot captures the current state for persistence or transport.
func (r *Rng) ToSnapshot() Snapshot {
	return Snapshot{Seed: r.seed, CallCount: r.callCount}
}

// FromSnapshot reconstructs an Rng whose next draw equals the next draw the
// snapshotted generator would have produced.
func FromSnapshot(s Snapshot) *Rng {
	r := New(s.Seed)
	for i := 0; i < s.CallCount; i++ {
		r.Next()
	}
	return r
}

// hashSeed expands a seed string into four 32-bit words using cyrb128.
func hashSeed(seed string) (uint32, uint32, uint32, uint32) {
	h1 := uint32(1779033703)
	h2 := uint32(3144134277)
	h3 := uint32(1013904242)
	h4 := uint32(2773480762)

	for i := 0; i < len(seed); i++ {
		k := uint32(seed[i])
		h1 = h2 ^ ((h1 ^ k) * 597399067)
		h2 = h3 ^ ((h2 ^ k) * 2869860233)
		h3 = h4 ^ ((h3 ^ k) * 951274213)
		h4 = h1 ^ ((h4 ^ k) * 2716044179)
	}

	h1 = (h3 ^ (h1 >> 18)) * 597399067
	h2 = (h4 ^ (h2 >> 22)) * 2869860233
	h3 = (h1 ^ (h3 >> 17)) * 951274213
	h4 = (h2 ^ (h4 >> 19)) * 2716044179

	return h1 ^ h2 ^ h3 ^ h4, h2 ^ h1, h3 ^ h1, h4 ^ h1
}

// Shuffle returns a new slice holding a Fisher-Yates permutation of items.
// The input is never mutated. Consumes exactly len(items)-1 draws for a
// non-empty input.
func Shuffle[T any](items []T, r *Rng) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := r.NextInt(0, i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
