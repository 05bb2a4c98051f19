package train

import (
	"math"
	"testing"
)

func refSchedule() Schedule {
	return Schedule{
		BaseRate:    6e-4,
		MinRate:     6e-5,
		WarmupIters: 2000,
		DecayIters:  600000,
		Enabled:     true,
	}
}

func TestScheduleWarmupIsLinear(t *testing.T) {
	s := refSchedule()
	for _, step := range []int{0, 1, 500, 1000, 1999} {
		want := s.BaseRate * float64(step) / float64(s.WarmupIters)
		if got := s.Rate(step); math.Abs(got-want) > 1e-12 {
			t.Errorf("Rate(%d) = %v, want %v", step, got, want)
		}
	}
	if got := s.Rate(1000); math.Abs(got-3e-4) > 1e-12 {
		t.Errorf("Rate(1000) = %v, want 3e-4", got)
	}
}

func TestSchedulePastDecayReturnsMin(t *testing.T) {
	s := refSchedule()
	for _, step := range []int{600001, 700000, 1 << 30} {
		if got := s.Rate(step); got != s.MinRate {
			t.Errorf("Rate(%d) = %v, want %v", step, got, s.MinRate)
		}
	}
}

func TestScheduleCosineMidpoint(t *testing.T) {
	s := refSchedule()
	// progress 0.5 at step 301000: coeff = 0.5, rate = min + 0.5*(base-min)
	want := s.MinRate + 0.5*(s.BaseRate-s.MinRate)
	if got := s.Rate(301000); math.Abs(got-want) > 1e-9 {
		t.Errorf("Rate(301000) = %v, want %v", got, want)
	}
}

func TestScheduleContinuousAtBoundaries(t *testing.T) {
	s := refSchedule()
	if got := s.Rate(s.WarmupIters); math.Abs(got-s.BaseRate) > 1e-12 {
		t.Errorf("Rate(warmup) = %v, want base rate %v", got, s.BaseRate)
	}
	if got := s.Rate(s.DecayIters); math.Abs(got-s.MinRate) > 1e-12 {
		t.Errorf("Rate(decay horizon) = %v, want min rate %v", got, s.MinRate)
	}
	// one step either side of warmup differs by at most one warmup increment
	delta := math.Abs(s.Rate(s.WarmupIters+1) - s.Rate(s.WarmupIters-1))
	if delta > 2*s.BaseRate/float64(s.WarmupIters) {
		t.Errorf("discontinuity at warmup boundary: delta %v", delta)
	}
}

func TestScheduleDisabledIsConstant(t *testing.T) {
	s := refSchedule()
	s.Enabled = false
	for _, step := range []int{0, 1000, 600001} {
		if got := s.Rate(step); got != s.BaseRate {
			t.Errorf("disabled Rate(%d) = %v, want constant %v", step, got, s.BaseRate)
		}
	}
}

func TestScheduleIsMonotoneAfterWarmup(t *testing.T) {
	s := refSchedule()
	prev := s.Rate(s.WarmupIters)
	for step := s.WarmupIters + 1000; step <= s.DecayIters; step += 1000 {
		cur := s.Rate(step)
		if cur > prev {
			t.Fatalf("rate increased during decay: Rate(%d)=%v > %v", step, cur, prev)
		}
		prev = cur
	}
}
