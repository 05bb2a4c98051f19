package ops

import (
	"fmt"

	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// EmbeddingOp gathers rows of a weight table [vocab, dim] by integer index,
// producing [len(indices), dim]. Token and position embeddings both use it.
type EmbeddingOp struct {
	weight  *tensor.RawTensor
	indices []int32
	output  *tensor.RawTensor
}

// NewEmbedding creates an EmbeddingOp.
func NewEmbedding(weight *tensor.RawTensor, indices []int32) *EmbeddingOp {
	ws := weight.Shape()
	if weight.Rank() != 2 {
		panic(fmt.Sprintf("ops: Embedding weight must be rank 2, got %v", ws))
	}
	vocab, dim := ws[0], ws[1]
	out := tensor.NewRaw(tensor.Shape{len(indices), dim})
	src := weight.Data()
	dst := out.Data()
	for i, idx := range indices {
		if idx < 0 || int(idx) >= vocab {
			panic(fmt.Sprintf("ops: Embedding index %d out of range [0,%d)", idx, vocab))
		}
		copy(dst[i*dim:(i+1)*dim], src[int(idx)*dim:(int(idx)+1)*dim])
	}
	return &EmbeddingOp{weight: weight, indices: indices, output: out}
}

// Backward scatter-adds the gradient rows into the weight gradient.
// Repeated indices accumulate, which is what makes position embeddings
// learn from every batch row.
func (op *EmbeddingOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	dim := op.weight.Shape()[1]
	dw := tensor.Zeros(op.weight.Shape())
	g := outputGrad.Data()
	dst := dw.Data()
	for i, idx := range op.indices {
		row := dst[int(idx)*dim : (int(idx)+1)*dim]
		gRow := g[i*dim : (i+1)*dim]
		for j := range row {
			row[j] += gRow[j]
		}
	}
	return []*tensor.RawTensor{dw}
}

// Inputs returns [weight]. Indices are not differentiable.
func (op *EmbeddingOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.weight} }

// Output returns the gathered rows.
func (op *EmbeddingOp) Output() *tensor.RawTensor { return op.output }
