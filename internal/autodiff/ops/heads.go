package ops

import (
	"fmt"

	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// SplitHeadsOp rearranges a flattened sequence tensor [b*t, h*hd] into the
// per-head layout [b*h, t, hd] used by batched attention matmuls.
// MergeHeadsOp is its exact inverse, so both share one permutation kernel.
type SplitHeadsOp struct {
	x       *tensor.RawTensor
	b, t, h int
	output  *tensor.RawTensor
}

// NewSplitHeads creates a SplitHeadsOp. x must be [b*t, c] with h dividing c.
func NewSplitHeads(x *tensor.RawTensor, b, t, h int) *SplitHeadsOp {
	xs := x.Shape()
	if x.Rank() != 2 || xs[0] != b*t || xs[1]%h != 0 {
		panic(fmt.Sprintf("ops: SplitHeads shape %v incompatible with b=%d t=%d h=%d", xs, b, t, h))
	}
	hd := xs[1] / h
	out := tensor.NewRaw(tensor.Shape{b * h, t, hd})
	splitHeads(x.Data(), out.Data(), b, t, h, hd)
	return &SplitHeadsOp{x: x, b: b, t: t, h: h, output: out}
}

// Backward applies the inverse permutation to the gradient.
func (op *SplitHeadsOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	hd := op.x.Shape()[1] / op.h
	dx := tensor.NewRaw(op.x.Shape())
	mergeHeads(outputGrad.Data(), dx.Data(), op.b, op.t, op.h, hd)
	return []*tensor.RawTensor{dx}
}

// Inputs returns [x].
func (op *SplitHeadsOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }

// Output returns the per-head tensor.
func (op *SplitHeadsOp) Output() *tensor.RawTensor { return op.output }

// MergeHeadsOp rearranges [b*h, t, hd] back into [b*t, h*hd].
type MergeHeadsOp struct {
	x       *tensor.RawTensor
	b, t, h int
	output  *tensor.RawTensor
}

// NewMergeHeads creates a MergeHeadsOp. x must be [b*h, t, hd].
func NewMergeHeads(x *tensor.RawTensor, b, t, h int) *MergeHeadsOp {
	xs := x.Shape()
	if x.Rank() != 3 || xs[0] != b*h || xs[1] != t {
		panic(fmt.Sprintf("ops: MergeHeads shape %v incompatible with b=%d t=%d h=%d", xs, b, t, h))
	}
	hd := xs[2]
	out := tensor.NewRaw(tensor.Shape{b * t, h * hd})
	mergeHeads(x.Data(), out.Data(), b, t, h, hd)
	return &MergeHeadsOp{x: x, b: b, t: t, h: h, output: out}
}

// Backward applies the forward split permutation to the gradient.
func (op *MergeHeadsOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	hd := op.x.Shape()[2]
	dx := tensor.NewRaw(op.x.Shape())
	splitHeads(outputGrad.Data(), dx.Data(), op.b, op.t, op.h, hd)
	return []*tensor.RawTensor{dx}
}

// Inputs returns [x].
func (op *MergeHeadsOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }

// Output returns the merged tensor.
func (op *MergeHeadsOp) Output() *tensor.RawTensor { return op.output }

// splitHeads copies src [b*t, h*hd] into dst [b*h, t, hd].
func splitHeads(src, dst []float32, b, t, h, hd int) {
	for bi := 0; bi < b; bi++ {
		for ti := 0; ti < t; ti++ {
			for hi := 0; hi < h; hi++ {
				srcOff := (bi*t+ti)*h*hd + hi*hd
				dstOff := ((bi*h+hi)*t + ti) * hd
				copy(dst[dstOff:dstOff+hd], src[srcOff:srcOff+hd])
			}
		}
	}
}

// mergeHeads copies src [b*h, t, hd] into dst [b*t, h*hd].
func mergeHeads(src, dst []float32, b, t, h, hd int) {
	for bi := 0; bi < b; bi++ {
		for hi := 0; hi < h; hi++ {
			for ti := 0; ti < t; ti++ {
				srcOff := ((bi*h+hi)*t + ti) * hd
				dstOff := (bi*t+ti)*h*hd + hi*hd
				copy(dst[dstOff:dstOff+hd], src[srcOff:srcOff+hd])
			}
		}
	}
}
