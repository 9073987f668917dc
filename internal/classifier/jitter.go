package classifier

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

// Jitter supplies the position of a rule verdict inside its confidence band.
// Next must return a value in [0, 1) and be safe for concurrent use.
type Jitter interface {
	Next(f models.ExtractedFeatures) float64
}

// RandomJitter draws from the process-wide random source
type RandomJitter struct{}

func (RandomJitter) Next(models.ExtractedFeatures) float64 {
	return rand.Float64()
}

// SeededJitter draws from a fixed-seed generator, reproducible across runs
type SeededJitter struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededJitter creates a generator seeded with seed
func NewSeededJitter(seed uint64) *SeededJitter {
	return &SeededJitter{rng: rand.New(rand.NewPCG(seed, seed))}
}

func (s *SeededJitter) Next(models.ExtractedFeatures) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// HashJitter derives the value from the feature vector, so identical
// windows always receive identical confidences
type HashJitter struct{}

func (HashJitter) Next(f models.ExtractedFeatures) float64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range f.Vector() {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return float64(h.Sum64()>>11) / (1 << 53)
}

// FixedJitter always returns the same position
type FixedJitter float64

func (j FixedJitter) Next(models.ExtractedFeatures) float64 {
	return math.Min(math.Max(float64(j), 0), math.Nextafter(1, 0))
}

// ParseJitter builds a Jitter from its configuration name
func ParseJitter(kind string, seed uint64) (Jitter, error) {
	switch strings.ToLower(kind) {
	case "", "hashed":
		return HashJitter{}, nil
	case "random":
		return RandomJitter{}, nil
	case "seeded":
		return NewSeededJitter(seed), nil
	case "fixed":
		return FixedJitter(0.5), nil
	default:
		return nil, fmt.Errorf("unknown jitter kind %q", kind)
	}
}
