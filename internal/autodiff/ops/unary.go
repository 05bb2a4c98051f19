package ops

import (
	"github.com/Shyamsaitejamandibi/mada/internal/backend/cpu"
	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// ScaleOp computes c*x + d element-wise for constants c and d.
// Covers loss scaling (1/accumulation_steps), attention score scaling and
// the epsilon shift in the optimizer denominator.
type ScaleOp struct {
	x      *tensor.RawTensor
	c      float32
	output *tensor.RawTensor
}

// NewScale creates a ScaleOp computing c*x + d.
func NewScale(x *tensor.RawTensor, c, d float32) *ScaleOp {
	return &ScaleOp{x: x, c: c, output: mustFromSlice(cpu.Scale(x.Data(), c, d), x.Shape())}
}

// Backward propagates dx = c * g.
func (op *ScaleOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	return []*tensor.RawTensor{mustFromSlice(cpu.Scale(outputGrad.Data(), op.c, 0), op.x.Shape())}
}

// Inputs returns [x].
func (op *ScaleOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }

// Output returns the result tensor.
func (op *ScaleOp) Output() *tensor.RawTensor { return op.output }

// SqrtOp computes element-wise square roots.
type SqrtOp struct {
	x      *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSqrt creates a SqrtOp.
func NewSqrt(x *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{x: x, output: mustFromSlice(cpu.Sqrt(x.Data()), x.Shape())}
}

// Backward propagates dx = g / (2*sqrt(x)) using the cached output.
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	g := outputGrad.Data()
	y := op.output.Data()
	dx := make([]float32, len(g))
	for i := range g {
		dx[i] = g[i] * 0.5 / y[i]
	}
	return []*tensor.RawTensor{mustFromSlice(dx, op.x.Shape())}
}

// Inputs returns [x].
func (op *SqrtOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }

// Output returns the result tensor.
func (op *SqrtOp) Output() *tensor.RawTensor { return op.output }

// PowOp computes element-wise x^p for a constant exponent p. The
// hypergradient replay uses it for the beta^t bias-correction terms.
type PowOp struct {
	x      *tensor.RawTensor
	p      float64
	output *tensor.RawTensor
}

// NewPow creates a PowOp.
func NewPow(x *tensor.RawTensor, p float64) *PowOp {
	return &PowOp{x: x, p: p, output: mustFromSlice(cpu.Pow(x.Data(), p), x.Shape())}
}

// Backward propagates dx = p * x^(p-1) * g.
func (op *PowOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	g := outputGrad.Data()
	deriv := cpu.Pow(op.x.Data(), op.p-1)
	dx := make([]float32, len(g))
	for i := range g {
		dx[i] = g[i] * float32(op.p) * deriv[i]
	}
	return []*tensor.RawTensor{mustFromSlice(dx, op.x.Shape())}
}

// Inputs returns [x].
func (op *PowOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }

// Output returns the result tensor.
func (op *PowOp) Output() *tensor.RawTensor { return op.output }

// GELUOp applies the tanh-approximated GELU activation.
type GELUOp struct {
	x      *tensor.RawTensor
	output *tensor.RawTensor
}

// NewGELU creates a GELUOp.
func NewGELU(x *tensor.RawTensor) *GELUOp {
	return &GELUOp{x: x, output: mustFromSlice(cpu.GELU(x.Data()), x.Shape())}
}

// Backward propagates through the activation using the cached input.
func (op *GELUOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	return []*tensor.RawTensor{mustFromSlice(cpu.GELUBackward(op.x.Data(), outputGrad.Data()), op.x.Shape())}
}

// Inputs returns [x].
func (op *GELUOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }

// Output returns the result tensor.
func (op *GELUOp) Output() *tensor.RawTensor { return op.output }
