package ops

import (
	"fmt"

	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// SliceColsOp extracts a contiguous column range [start, start+width) from a
// rank-2 tensor. The fused QKV projection is split into Q, K and V with
// three of these; gradient accumulation on the shared input stitches the
// three backward scatters together.
type SliceColsOp struct {
	x            *tensor.RawTensor
	start, width int
	output       *tensor.RawTensor
}

// NewSliceCols creates a SliceColsOp over x [rows, cols].
func NewSliceCols(x *tensor.RawTensor, start, width int) *SliceColsOp {
	xs := x.Shape()
	if x.Rank() != 2 || start < 0 || start+width > xs[1] {
		panic(fmt.Sprintf("ops: SliceCols [%d:%d) out of range for %v", start, start+width, xs))
	}
	rows, cols := xs[0], xs[1]
	data := make([]float32, rows*width)
	src := x.Data()
	for r := 0; r < rows; r++ {
		copy(data[r*width:(r+1)*width], src[r*cols+start:r*cols+start+width])
	}
	return &SliceColsOp{
		x:      x,
		start:  start,
		width:  width,
		output: mustFromSlice(data, tensor.Shape{rows, width}),
	}
}

// Backward scatters the gradient back into the sliced column range of a
// zero tensor shaped like the input.
func (op *SliceColsOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	xs := op.x.Shape()
	rows, cols := xs[0], xs[1]
	dx := tensor.Zeros(xs)
	g := outputGrad.Data()
	dst := dx.Data()
	for r := 0; r < rows; r++ {
		copy(dst[r*cols+op.start:r*cols+op.start+op.width], g[r*op.width:(r+1)*op.width])
	}
	return []*tensor.RawTensor{dx}
}

// Inputs returns [x].
func (op *SliceColsOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }

// Output returns the sliced tensor.
func (op *SliceColsOp) Output() *tensor.RawTensor { return op.output }
