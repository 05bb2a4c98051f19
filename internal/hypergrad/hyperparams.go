// Package hypergrad implements hypergradient descent: a differentiable
// optimizer whose hyperparameters are themselves trained by gradient
// descent through the parameter update rule.
package hypergrad

import (
	"fmt"

	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// Hyperparameter names. Alpha is the learning rate; it stays differentiable
// so gradient can flow through the update, but the outer loop overwrites it
// from the schedule every iteration and masks its gradient unconditionally.
const (
	Beta1 = "beta1" // momentum decay
	Beta2 = "beta2" // second-moment decay
	Beta3 = "beta3" // auxiliary second-moment decay
	Rho   = "rho"   // shape: blends the two second-moment populations
	Gamma = "gamma" // scale: scales the first-moment numerator
	Alpha = "alpha" // learning rate (schedule-driven, never learned)
)

// Range is the valid reporting interval for a hyperparameter.
type Range struct {
	Lo, Hi float32
}

// Clamp returns v clipped into the range.
func (r Range) Clamp(v float32) float32 {
	return min(max(v, r.Lo), r.Hi)
}

// HyperParam is one named differentiable scalar: a one-element value tensor
// that participates in the autodiff graph, a gradient slot populated by the
// backward pass, and a clamp range used only for reporting and persistence.
type HyperParam struct {
	name  string
	value *tensor.RawTensor // shape {1}; identity stable across iterations
	grad  *tensor.RawTensor // shape {1}; replaced every meta-step
	valid Range
}

// Name returns the hyperparameter's name.
func (h *HyperParam) Name() string { return h.name }

// ValueTensor returns the live value tensor (the autodiff graph leaf).
func (h *HyperParam) ValueTensor() *tensor.RawTensor { return h.value }

// Value returns the current trainable value, unclamped.
func (h *HyperParam) Value() float32 { return h.value.Item() }

// SetValue overwrites the trainable value in place, preserving the
// tensor's graph identity.
func (h *HyperParam) SetValue(v float32) { h.value.SetItem(v) }

// Grad returns the accumulated gradient, or nil before the first backward.
func (h *HyperParam) Grad() *tensor.RawTensor { return h.grad }

// SetGrad replaces the gradient slot.
func (h *HyperParam) SetGrad(g *tensor.RawTensor) { h.grad = g }

// ZeroGrad resets the gradient slot to an explicit zero. Masking uses this
// rather than nil so momentum buffers in the meta-optimizer keep decaying.
func (h *HyperParam) ZeroGrad() { h.grad = tensor.Scalar(0) }

// Clamped returns the value clipped into the valid range. The underlying
// trainable tensor is never mutated; repeated reads are idempotent.
func (h *HyperParam) Clamped() float32 { return h.valid.Clamp(h.value.Item()) }

// Set is the named collection of the six optimizer hyperparameters.
type Set struct {
	order  []string
	byName map[string]*HyperParam
}

// Values holds initial hyperparameter values for a Set.
type Values struct {
	Beta1 float32
	Beta2 float32
	Beta3 float32
	Rho   float32
	Gamma float32
	Alpha float32
}

// NewSet creates the hyperparameter set with canonical clamp ranges.
func NewSet(v Values) *Set {
	s := &Set{byName: make(map[string]*HyperParam)}
	add := func(name string, value float32, valid Range) {
		s.order = append(s.order, name)
		s.byName[name] = &HyperParam{
			name:  name,
			value: tensor.Scalar(value),
			grad:  tensor.Scalar(0),
			valid: valid,
		}
	}
	add(Beta1, v.Beta1, Range{0, 0.999})
	add(Beta2, v.Beta2, Range{0.5, 0.999})
	add(Beta3, v.Beta3, Range{0, 1})
	add(Rho, v.Rho, Range{0, 1})
	add(Gamma, v.Gamma, Range{0, 1})
	add(Alpha, v.Alpha, Range{0, 1})
	return s
}

// Get returns a hyperparameter by name, panicking on unknown names.
func (s *Set) Get(name string) *HyperParam {
	h, ok := s.byName[name]
	if !ok {
		panic(fmt.Sprintf("hypergrad: unknown hyperparameter %q", name))
	}
	return h
}

// Names returns the hyperparameter names in declaration order.
func (s *Set) Names() []string { return s.order }

// All returns the hyperparameters in declaration order.
func (s *Set) All() []*HyperParam {
	out := make([]*HyperParam, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// Snapshot returns a name -> clamped value map for logging and checkpoints.
func (s *Set) Snapshot() map[string]float32 {
	out := make(map[string]float32, len(s.order))
	for _, name := range s.order {
		out[name] = s.byName[name].Clamped()
	}
	return out
}
