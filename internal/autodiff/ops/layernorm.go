package ops

import (
	"fmt"

	"github.com/Shyamsaitejamandibi/mada/internal/backend/cpu"
	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// LayerNormOp is a fused layer normalization over the rows of [rows, dim]
// with learnable gamma/beta. Fusing keeps the tape short and lets the
// backward pass reuse the normalized activations instead of recomputing
// the mean/variance chain op by op.
type LayerNormOp struct {
	x, gamma, beta *tensor.RawTensor
	xhat, rstd     []float32
	output         *tensor.RawTensor
}

// NewLayerNorm creates a LayerNormOp.
func NewLayerNorm(x, gamma, beta *tensor.RawTensor, eps float32) *LayerNormOp {
	xs := x.Shape()
	if x.Rank() != 2 || gamma.NumElements() != xs[1] || beta.NumElements() != xs[1] {
		panic(fmt.Sprintf("ops: LayerNorm shapes x=%v gamma=%v beta=%v", xs, gamma.Shape(), beta.Shape()))
	}
	rows, dim := xs[0], xs[1]
	out, xhat, rstd := cpu.LayerNorm(x.Data(), gamma.Data(), beta.Data(), rows, dim, eps)
	return &LayerNormOp{
		x: x, gamma: gamma, beta: beta,
		xhat: xhat, rstd: rstd,
		output: mustFromSlice(out, xs),
	}
}

// Backward computes input, gamma and beta gradients from the cached
// normalized activations.
func (op *LayerNormOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	xs := op.x.Shape()
	rows, dim := xs[0], xs[1]
	dx, dgamma, dbeta := cpu.LayerNormBackward(outputGrad.Data(), op.xhat, op.rstd, op.gamma.Data(), rows, dim)
	return []*tensor.RawTensor{
		mustFromSlice(dx, xs),
		mustFromSlice(dgamma, op.gamma.Shape()),
		mustFromSlice(dbeta, op.beta.Shape()),
	}
}

// Inputs returns [x, gamma, beta].
func (op *LayerNormOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.x, op.gamma, op.beta}
}

// Output returns the normalized tensor.
func (op *LayerNormOp) Output() *tensor.RawTensor { return op.output }
