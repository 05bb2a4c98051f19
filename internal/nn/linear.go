package nn

import (
	"math/rand"

	"github.com/Shyamsaitejamandibi/mada/internal/autodiff"
	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// Linear is a dense layer computing y = x @ W + b.
//
// The weight is stored [in_features, out_features] so the forward pass is a
// single matmul without a transpose.
type Linear struct {
	weight *Parameter
	bias   *Parameter // nil when the model runs without biases
}

// NewLinear creates a Linear layer with normal(0, std) weight init and zero
// biases. Pass bias=false to omit the bias entirely.
func NewLinear(name string, inFeatures, outFeatures int, bias bool, std float64, rng *rand.Rand) *Linear {
	l := &Linear{
		weight: NewParameter(name+".weight", tensor.Randn(tensor.Shape{inFeatures, outFeatures}, std, rng)),
	}
	if bias {
		l.bias = NewParameter(name+".bias", tensor.Zeros(tensor.Shape{outFeatures}))
	}
	return l
}

// Forward applies the layer to x [rows, in_features].
func (l *Linear) Forward(e *autodiff.Engine, x *tensor.RawTensor) *tensor.RawTensor {
	out := e.MatMul(x, l.weight.Tensor())
	if l.bias != nil {
		out = e.Add(out, l.bias.Tensor())
	}
	return out
}

// Parameters returns [weight] or [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	if l.bias != nil {
		return []*Parameter{l.weight, l.bias}
	}
	return []*Parameter{l.weight}
}
