package ops

import (
	"fmt"

	"github.com/Shyamsaitejamandibi/mada/internal/backend/cpu"
	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// CausalSoftmaxOp applies a causally masked softmax over attention scores
// [batch, t, t]. Positions j > i get exactly zero probability, so no
// separate mask tensor is needed and the backward pass stays a pure
// function of the output probabilities.
type CausalSoftmaxOp struct {
	x      *tensor.RawTensor
	output *tensor.RawTensor
}

// NewCausalSoftmax creates a CausalSoftmaxOp.
func NewCausalSoftmax(x *tensor.RawTensor) *CausalSoftmaxOp {
	xs := x.Shape()
	if x.Rank() != 3 || xs[1] != xs[2] {
		panic(fmt.Sprintf("ops: CausalSoftmax expects [batch, t, t], got %v", xs))
	}
	out := mustFromSlice(cpu.CausalSoftmax(x.Data(), xs[0], xs[1]), xs)
	return &CausalSoftmaxOp{x: x, output: out}
}

// Backward computes ds = p * (dp - sum(dp*p)) row-wise.
func (op *CausalSoftmaxOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	xs := op.x.Shape()
	dx := cpu.CausalSoftmaxBackward(op.output.Data(), outputGrad.Data(), xs[0], xs[1])
	return []*tensor.RawTensor{mustFromSlice(dx, xs)}
}

// Inputs returns [x].
func (op *CausalSoftmaxOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }

// Output returns the probability tensor.
func (op *CausalSoftmaxOp) Output() *tensor.RawTensor { return op.output }
