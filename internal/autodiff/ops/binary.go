package ops

import (
	"github.com/Shyamsaitejamandibi/mada/internal/backend/cpu"
	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// binaryKind selects the element-wise operator of a BinaryOp.
type binaryKind int

const (
	kindAdd binaryKind = iota
	kindSub
	kindMul
	kindDiv
)

// BinaryOp is an element-wise binary operation with trailing broadcast of
// the second operand: b may be the same size as a, a scalar, or a
// trailing-dimension vector. Gradients flowing to a broadcast operand are
// sum-reduced back to its shape.
type BinaryOp struct {
	kind   binaryKind
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

func newBinary(kind binaryKind, a, b *tensor.RawTensor, data []float32) *BinaryOp {
	return &BinaryOp{kind: kind, a: a, b: b, output: mustFromSlice(data, a.Shape())}
}

// NewAdd computes a + b.
func NewAdd(a, b *tensor.RawTensor) *BinaryOp {
	return newBinary(kindAdd, a, b, cpu.Add(a.Data(), b.Data()))
}

// NewSub computes a - b.
func NewSub(a, b *tensor.RawTensor) *BinaryOp {
	return newBinary(kindSub, a, b, cpu.Sub(a.Data(), b.Data()))
}

// NewMul computes a * b.
func NewMul(a, b *tensor.RawTensor) *BinaryOp {
	return newBinary(kindMul, a, b, cpu.Mul(a.Data(), b.Data()))
}

// NewDiv computes a / b.
func NewDiv(a, b *tensor.RawTensor) *BinaryOp {
	return newBinary(kindDiv, a, b, cpu.Div(a.Data(), b.Data()))
}

// Backward distributes the upstream gradient to both operands, reducing
// over broadcast positions for b.
func (op *BinaryOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	g := outputGrad.Data()
	bn := op.b.NumElements()

	var da, db []float32
	switch op.kind {
	case kindAdd:
		da = append([]float32(nil), g...)
		db = cpu.ReduceBroadcast(g, bn)
	case kindSub:
		da = append([]float32(nil), g...)
		db = cpu.ReduceBroadcast(g, bn)
		for i := range db {
			db[i] = -db[i]
		}
	case kindMul:
		da = cpu.Mul(g, op.b.Data())
		db = cpu.ReduceBroadcast(cpu.Mul(g, op.a.Data()), bn)
	case kindDiv:
		da = cpu.Div(g, op.b.Data())
		// db = -g * a / b^2, reduced to b's shape.
		tmp := cpu.Mul(g, op.a.Data())
		bSq := cpu.Mul(op.b.Data(), op.b.Data())
		tmp = cpu.Div(tmp, bSq)
		db = cpu.ReduceBroadcast(tmp, bn)
		for i := range db {
			db[i] = -db[i]
		}
	}

	gradA := mustFromSlice(da, op.a.Shape())
	gradB := mustFromSlice(db, op.b.Shape())
	return []*tensor.RawTensor{gradA, gradB}
}

// Inputs returns [a, b].
func (op *BinaryOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.a, op.b}
}

// Output returns the result tensor.
func (op *BinaryOp) Output() *tensor.RawTensor {
	return op.output
}

func mustFromSlice(data []float32, shape tensor.Shape) *tensor.RawTensor {
	t, err := tensor.FromSlice(data, shape)
	if err != nil {
		panic(err)
	}
	return t
}
