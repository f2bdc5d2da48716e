package entropy

import (
	"math/rand"
	"sync"
)

// Source provides uniform random floats in [0, 1). Everything stochastic in
// the simulation draws through a Source so runs can be replayed.
type Source interface {
	Float64() float64
}

// Seeded is a deterministic Source backed by math/rand.
type Seeded struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded returns a deterministic source for the given seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewSource(seed))}
}

// Float64 returns the next value in [0, 1).
func (s *Seeded) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Reseed restarts the sequence from a new seed.
func (s *Seeded) Reseed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Seed(seed)
}

// SeedFrom draws a 53-bit seed from src.
func SeedFrom(src Source) int64 {
	return int64(src.Float64() * (1 << 53))
}

// Crypto is a Source backed by crypto/rand.
type Crypto struct{}

// Float64 returns a crypto-random value in [0, 1).
func (Crypto) Float64() float64 {
	return cryptoRandFloat()
}

// Sequence replays a fixed list of values, cycling when exhausted. Tests use
// it to script every random decision.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewSequence returns a source that yields values in order. An empty
// sequence always yields 0.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

// Float64 returns the next scripted value.
func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// Draws returns how many values have been consumed.
func (s *Sequence) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Constant always yields the same value.
type Constant float64

// Float64 returns the constant.
func (c Constant) Float64() float64 {
	return float64(c)
}

// UniformRange draws a value in [lo, hi) from src.
func UniformRange(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}
