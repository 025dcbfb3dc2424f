package optimize

import (
	"errors"
	"fmt"
)

// BytesPerKB defines the unit used by MaxSizeKB.
const BytesPerKB = 1024

// SizePolicy holds the limits for one run. It is not modified once a run starts.
type SizePolicy struct {
	MaxSizeKB    int
	MaxDimension int
	StartQuality int
	FloorQuality int
	Step         int
}

// DefaultPolicy returns the stock 100 KB / 800 px policy searching 80 down to 40.
func DefaultPolicy() SizePolicy {
	return SizePolicy{
		MaxSizeKB:    100,
		MaxDimension: 800,
		StartQuality: 80,
		FloorQuality: 40,
		Step:         10,
	}
}

// MaxBytes returns the budget in bytes.
func (p SizePolicy) MaxBytes() int64 {
	return int64(p.MaxSizeKB) * BytesPerKB
}

// Validate rejects policies the quality search cannot run with.
func (p SizePolicy) Validate() error {
	var errs []error
	if p.MaxSizeKB <= 0 {
		errs = append(errs, errors.New("max size must be positive"))
	}
	if p.MaxDimension <= 0 {
		errs = append(errs, errors.New("max dimension must be positive"))
	}
	if p.Step <= 0 {
		errs = append(errs, errors.New("quality step must be positive"))
	}
	if p.StartQuality < 1 || p.StartQuality > 100 {
		errs = append(errs, fmt.Errorf("start quality %d outside 1..100", p.StartQuality))
	}
	if p.FloorQuality < 1 || p.FloorQuality > 100 {
		errs = append(errs, fmt.Errorf("floor quality %d outside 1..100", p.FloorQuality))
	}
	if p.FloorQuality > p.StartQuality {
		errs = append(errs, errors.New("floor quality exceeds start quality"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPolicy, errors.Join(errs...))
	}
	return nil
}

// Qualities lists the search order: start, start-step, ... down to the
// floor. The floor itself is tried only when a step lands on it.
func (p SizePolicy) Qualities() []int {
	if p.Step <= 0 {
		return nil
	}
	var out []int
	for q := p.StartQuality; q >= p.FloorQuality; q -= p.Step {
		out = append(out, q)
	}
	return out
}
