package hardware

import (
	"context"
	"math/rand"
	"sync"
)

// Default simulation parameters, matching a typical adult cat on the platform.
const (
	defaultSimCatWeight = 4.5  // kg
	defaultSimNoise     = 0.05 // kg, +/- amplitude
)

// SimScale simulates a load cell.
//
// When a cat is present the reading is the configured cat weight plus
// uniform noise; when absent it is tare drift around zero. All methods are
// safe for concurrent use.
type SimScale struct {
	mu        sync.Mutex
	catWeight float64
	noise     float64
	present   bool
	tare      float64
	failNext  error
	rng       *rand.Rand
}

// NewSimScale creates a simulated scale with default cat weight and noise.
func NewSimScale(seed int64) *SimScale {
	return &SimScale{
		catWeight: defaultSimCatWeight,
		noise:     defaultSimNoise,
		rng:       rand.New(rand.NewSource(seed)), // #nosec G404 -- simulation noise, not crypto
	}
}

// ReadWeight returns the current simulated reading in kilograms.
func (s *SimScale) ReadWeight(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return 0, err
	}

	base := s.tare
	if s.present {
		base += s.catWeight
	}
	reading := base + (s.rng.Float64()*2-1)*s.noise
	if reading < 0 {
		reading = 0
	}
	return reading, nil
}

// Tare zeroes the scale.
func (s *SimScale) Tare(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.tare = 0
	s.mu.Unlock()
	return nil
}

// SetCatPresent places or removes the simulated cat.
func (s *SimScale) SetCatPresent(present bool) {
	s.mu.Lock()
	s.present = present
	s.mu.Unlock()
}

// SetCatWeight adjusts the simulated cat's weight in kilograms.
func (s *SimScale) SetCatWeight(kg float64) {
	s.mu.Lock()
	s.catWeight = kg
	s.mu.Unlock()
}

// FailNextRead makes the next ReadWeight return the given error.
func (s *SimScale) FailNextRead(err error) {
	s.mu.Lock()
	s.failNext = err
	s.mu.Unlock()
}
