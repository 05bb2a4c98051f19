package nn

import (
	"github.com/Shyamsaitejamandibi/mada/internal/autodiff"
	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

const layerNormEps = 1e-5

// LayerNorm normalizes activations along the feature dimension with a
// learnable scale and shift.
type LayerNorm struct {
	gamma *Parameter
	beta  *Parameter
}

// NewLayerNorm creates a LayerNorm over dim features; gamma starts at one,
// beta at zero.
func NewLayerNorm(name string, dim int) *LayerNorm {
	return &LayerNorm{
		gamma: NewParameter(name+".weight", tensor.Ones(tensor.Shape{dim})),
		beta:  NewParameter(name+".bias", tensor.Zeros(tensor.Shape{dim})),
	}
}

// Forward normalizes the rows of x [rows, dim].
func (l *LayerNorm) Forward(e *autodiff.Engine, x *tensor.RawTensor) *tensor.RawTensor {
	return e.LayerNorm(x, l.gamma.Tensor(), l.beta.Tensor(), layerNormEps)
}

// Parameters returns [gamma, beta].
func (l *LayerNorm) Parameters() []*Parameter {
	return []*Parameter{l.gamma, l.beta}
}
