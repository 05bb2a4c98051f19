package nn

import (
	"math"
	"math/rand"

	"github.com/Shyamsaitejamandibi/mada/internal/autodiff"
	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// CausalSelfAttention is multi-head scaled dot-product attention with a
// causal mask, using a fused QKV projection.
type CausalSelfAttention struct {
	nHead int
	nEmbd int
	qkv   *Linear
	proj  *Linear
}

// NewCausalSelfAttention creates an attention block. nEmbd must be
// divisible by nHead.
func NewCausalSelfAttention(name string, nEmbd, nHead int, bias bool, projStd float64, rng *rand.Rand) *CausalSelfAttention {
	if nEmbd%nHead != 0 {
		panic("nn: embedding width must be divisible by head count")
	}
	std := 0.02
	return &CausalSelfAttention{
		nHead: nHead,
		nEmbd: nEmbd,
		qkv:   NewLinear(name+".qkv", nEmbd, 3*nEmbd, bias, std, rng),
		proj:  NewLinear(name+".proj", nEmbd, nEmbd, bias, projStd, rng),
	}
}

// Forward applies attention to x [b*t, nEmbd] given the batch geometry.
func (a *CausalSelfAttention) Forward(e *autodiff.Engine, x *tensor.RawTensor, b, t int) *tensor.RawTensor {
	headDim := a.nEmbd / a.nHead

	qkv := a.qkv.Forward(e, x) // [b*t, 3*nEmbd]
	q := e.SliceCols(qkv, 0, a.nEmbd)
	k := e.SliceCols(qkv, a.nEmbd, a.nEmbd)
	v := e.SliceCols(qkv, 2*a.nEmbd, a.nEmbd)

	qh := e.SplitHeads(q, b, t, a.nHead) // [b*h, t, hd]
	kh := e.SplitHeads(k, b, t, a.nHead)
	vh := e.SplitHeads(v, b, t, a.nHead)

	scores := e.Scale(e.BatchMatMulTB(qh, kh), float32(1/math.Sqrt(float64(headDim))), 0)
	probs := e.CausalSoftmax(scores)
	ctx := e.BatchMatMul(probs, vh) // [b*h, t, hd]

	out := e.MergeHeads(ctx, b, t, a.nHead) // [b*t, nEmbd]
	return a.proj.Forward(e, out)
}

// Parameters returns the projection parameters.
func (a *CausalSelfAttention) Parameters() []*Parameter {
	return append(a.qkv.Parameters(), a.proj.Parameters()...)
}
