package train

import "math"

// Schedule produces the learning rate for a step: linear warmup to the
// base rate, cosine decay to the minimum, constant minimum past the
// decay horizon. A stateless pure function of the step index.
type Schedule struct {
	BaseRate    float64
	MinRate     float64
	WarmupIters int
	DecayIters  int
	Enabled     bool // false short-circuits to the constant base rate
}

// NewSchedule builds the schedule from a validated configuration.
func NewSchedule(c Config) Schedule {
	return Schedule{
		BaseRate:    c.LearningRate,
		MinRate:     c.MinLR,
		WarmupIters: c.WarmupIters,
		DecayIters:  c.LRDecayIters,
		Enabled:     c.DecayLR,
	}
}

// Rate returns the learning rate for the given step.
func (s Schedule) Rate(step int) float64 {
	if !s.Enabled {
		return s.BaseRate
	}
	if step < s.WarmupIters {
		return s.BaseRate * float64(step) / float64(s.WarmupIters)
	}
	if step > s.DecayIters {
		return s.MinRate
	}
	progress := float64(step-s.WarmupIters) / float64(s.DecayIters-s.WarmupIters)
	coeff := 0.5 * (1 + math.Cos(math.Pi*progress))
	return s.MinRate + coeff*(s.BaseRate-s.MinRate)
}
