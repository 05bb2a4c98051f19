package autodiff

import (
	"github.com/Shyamsaitejamandibi/mada/internal/autodiff/ops"
	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// Engine executes tensor operations through the cpu kernels and records
// them on its tape. One Engine per training process; evaluation pauses
// recording rather than constructing a second engine.
type Engine struct {
	tape *GradientTape
}

// New creates an Engine with an empty tape.
func New() *Engine {
	return &Engine{tape: NewGradientTape()}
}

// Tape returns the engine's gradient tape for recording control.
func (e *Engine) Tape() *GradientTape { return e.tape }

// NoGrad runs f with recording paused and guarantees recording state is
// restored even if f panics.
func (e *Engine) NoGrad(f func()) {
	was := e.tape.IsRecording()
	e.tape.StopRecording()
	defer func() {
		if was {
			e.tape.StartRecording()
		}
	}()
	f()
}

func (e *Engine) record(op ops.Operation) *tensor.RawTensor {
	e.tape.Record(op)
	return op.Output()
}

// Add computes a + b. When the operands differ in size, the smaller must be
// second (scalar or trailing-dimension broadcast); Add swaps commutatively.
func (e *Engine) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.NumElements() < b.NumElements() {
		a, b = b, a
	}
	return e.record(ops.NewAdd(a, b))
}

// Sub computes a - b with trailing broadcast of b.
func (e *Engine) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return e.record(ops.NewSub(a, b))
}

// Mul computes a * b, swapping so the broadcast operand is second.
func (e *Engine) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.NumElements() < b.NumElements() {
		a, b = b, a
	}
	return e.record(ops.NewMul(a, b))
}

// Div computes a / b with trailing broadcast of b.
func (e *Engine) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return e.record(ops.NewDiv(a, b))
}

// Scale computes c*x + d for constants c, d.
func (e *Engine) Scale(x *tensor.RawTensor, c, d float32) *tensor.RawTensor {
	return e.record(ops.NewScale(x, c, d))
}

// Sqrt computes element-wise square roots.
func (e *Engine) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return e.record(ops.NewSqrt(x))
}

// Pow computes element-wise x^p for a constant exponent.
func (e *Engine) Pow(x *tensor.RawTensor, p float64) *tensor.RawTensor {
	return e.record(ops.NewPow(x, p))
}

// GELU applies the tanh-approximated GELU activation.
func (e *Engine) GELU(x *tensor.RawTensor) *tensor.RawTensor {
	return e.record(ops.NewGELU(x))
}

// MatMul computes a @ b for rank-2 operands.
func (e *Engine) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return e.record(ops.NewMatMul(a, b))
}

// BatchMatMul computes a @ b batch-wise for rank-3 operands.
func (e *Engine) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return e.record(ops.NewBatchMatMul(a, b))
}

// BatchMatMulTB computes a @ b^T batch-wise (the attention score product).
func (e *Engine) BatchMatMulTB(a, b *tensor.RawTensor) *tensor.RawTensor {
	return e.record(ops.NewBatchMatMulTB(a, b))
}

// SliceCols extracts columns [start, start+width) of a rank-2 tensor.
func (e *Engine) SliceCols(x *tensor.RawTensor, start, width int) *tensor.RawTensor {
	return e.record(ops.NewSliceCols(x, start, width))
}

// SplitHeads rearranges [b*t, h*hd] into [b*h, t, hd].
func (e *Engine) SplitHeads(x *tensor.RawTensor, b, t, h int) *tensor.RawTensor {
	return e.record(ops.NewSplitHeads(x, b, t, h))
}

// MergeHeads rearranges [b*h, t, hd] back into [b*t, h*hd].
func (e *Engine) MergeHeads(x *tensor.RawTensor, b, t, h int) *tensor.RawTensor {
	return e.record(ops.NewMergeHeads(x, b, t, h))
}

// Embedding gathers weight rows by index.
func (e *Engine) Embedding(weight *tensor.RawTensor, indices []int32) *tensor.RawTensor {
	return e.record(ops.NewEmbedding(weight, indices))
}

// LayerNorm normalizes rows of x with learnable gamma and beta.
func (e *Engine) LayerNorm(x, gamma, beta *tensor.RawTensor, eps float32) *tensor.RawTensor {
	return e.record(ops.NewLayerNorm(x, gamma, beta, eps))
}

// CausalSoftmax applies a causally masked softmax to [batch, t, t] scores.
func (e *Engine) CausalSoftmax(x *tensor.RawTensor) *tensor.RawTensor {
	return e.record(ops.NewCausalSoftmax(x))
}

// CrossEntropy computes the scalar mean NLL of logits against targets.
func (e *Engine) CrossEntropy(logits *tensor.RawTensor, targets []int32) *tensor.RawTensor {
	return e.record(ops.NewCrossEntropy(logits, targets))
}

// Backward seeds the scalar loss with a unit gradient and returns the
// accumulated gradient for every tensor reachable from it on the tape.
func (e *Engine) Backward(loss *tensor.RawTensor) map[*tensor.RawTensor]*tensor.RawTensor {
	return e.tape.Backward(loss, tensor.Scalar(1))
}
