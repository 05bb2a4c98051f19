package ops

import (
	"fmt"

	"github.com/Shyamsaitejamandibi/mada/internal/backend/cpu"
	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// MatMulOp computes C = A @ B for A [m,k] and B [k,n].
type MatMulOp struct {
	a, b    *tensor.RawTensor
	m, k, n int
	output  *tensor.RawTensor
}

// NewMatMul creates a MatMulOp. Both inputs must be rank-2 with matching
// inner dimensions.
func NewMatMul(a, b *tensor.RawTensor) *MatMulOp {
	as, bs := a.Shape(), b.Shape()
	if a.Rank() != 2 || b.Rank() != 2 || as[1] != bs[0] {
		panic(fmt.Sprintf("ops: MatMul shape mismatch %v @ %v", as, bs))
	}
	m, k, n := as[0], as[1], bs[1]
	out := mustFromSlice(cpu.MatMul(a.Data(), b.Data(), m, k, n), tensor.Shape{m, n})
	return &MatMulOp{a: a, b: b, m: m, k: k, n: n, output: out}
}

// Backward computes dA = g @ B^T and dB = A^T @ g.
func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	g := outputGrad.Data()
	da := cpu.MatMulTB(g, op.b.Data(), op.m, op.n, op.k)
	db := cpu.MatMulTA(op.a.Data(), g, op.k, op.m, op.n)
	return []*tensor.RawTensor{
		mustFromSlice(da, op.a.Shape()),
		mustFromSlice(db, op.b.Shape()),
	}
}

// Inputs returns [a, b].
func (op *MatMulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }

// Output returns the result tensor.
func (op *MatMulOp) Output() *tensor.RawTensor { return op.output }

// BatchMatMulOp computes C[g] = A[g] @ B[g] for A [batch,m,k], B [batch,k,n],
// or C[g] = A[g] @ B[g]^T when transB is set (B [batch,n,k]). The transposed
// form is the attention-score product Q @ K^T.
type BatchMatMulOp struct {
	a, b           *tensor.RawTensor
	batch, m, k, n int
	transB         bool
	output         *tensor.RawTensor
}

// NewBatchMatMul creates a plain batched matmul.
func NewBatchMatMul(a, b *tensor.RawTensor) *BatchMatMulOp {
	as, bs := a.Shape(), b.Shape()
	if a.Rank() != 3 || b.Rank() != 3 || as[0] != bs[0] || as[2] != bs[1] {
		panic(fmt.Sprintf("ops: BatchMatMul shape mismatch %v @ %v", as, bs))
	}
	batch, m, k, n := as[0], as[1], as[2], bs[2]
	out := mustFromSlice(cpu.BatchMatMul(a.Data(), b.Data(), batch, m, k, n), tensor.Shape{batch, m, n})
	return &BatchMatMulOp{a: a, b: b, batch: batch, m: m, k: k, n: n, output: out}
}

// NewBatchMatMulTB creates a batched matmul against the transpose of b.
func NewBatchMatMulTB(a, b *tensor.RawTensor) *BatchMatMulOp {
	as, bs := a.Shape(), b.Shape()
	if a.Rank() != 3 || b.Rank() != 3 || as[0] != bs[0] || as[2] != bs[2] {
		panic(fmt.Sprintf("ops: BatchMatMulTB shape mismatch %v @ %v^T", as, bs))
	}
	batch, m, k, n := as[0], as[1], as[2], bs[1]
	out := mustFromSlice(cpu.BatchMatMulTB(a.Data(), b.Data(), batch, m, k, n), tensor.Shape{batch, m, n})
	return &BatchMatMulOp{a: a, b: b, batch: batch, m: m, k: k, n: n, transB: true, output: out}
}

// Backward computes the batched matmul gradients for both layouts.
func (op *BatchMatMulOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	g := outputGrad.Data()
	var da, db []float32
	if op.transB {
		// C = A @ B^T: dA = g @ B, dB = g^T @ A.
		da = cpu.BatchMatMul(g, op.b.Data(), op.batch, op.m, op.n, op.k)
		db = cpu.BatchMatMulTA(g, op.a.Data(), op.batch, op.n, op.m, op.k)
	} else {
		// C = A @ B: dA = g @ B^T, dB = A^T @ g.
		da = cpu.BatchMatMulTB(g, op.b.Data(), op.batch, op.m, op.n, op.k)
		db = cpu.BatchMatMulTA(op.a.Data(), g, op.batch, op.k, op.m, op.n)
	}
	return []*tensor.RawTensor{
		mustFromSlice(da, op.a.Shape()),
		mustFromSlice(db, op.b.Shape()),
	}
}

// Inputs returns [a, b].
func (op *BatchMatMulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }

// Output returns the result tensor.
func (op *BatchMatMulOp) Output() *tensor.RawTensor { return op.output }
