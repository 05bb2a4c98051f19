package nn

import (
	"math/rand"

	"github.com/Shyamsaitejamandibi/mada/internal/autodiff"
	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// Block is one pre-norm transformer block: attention and a GELU MLP, each
// behind a LayerNorm with a residual connection.
type Block struct {
	ln1  *LayerNorm
	attn *CausalSelfAttention
	ln2  *LayerNorm
	fc   *Linear
	proj *Linear
}

// NewBlock creates a transformer block. projStd is the scaled-down init for
// residual projections.
func NewBlock(name string, nEmbd, nHead int, bias bool, projStd float64, rng *rand.Rand) *Block {
	return &Block{
		ln1:  NewLayerNorm(name+".ln1", nEmbd),
		attn: NewCausalSelfAttention(name+".attn", nEmbd, nHead, bias, projStd, rng),
		ln2:  NewLayerNorm(name+".ln2", nEmbd),
		fc:   NewLinear(name+".mlp.fc", nEmbd, 4*nEmbd, bias, 0.02, rng),
		proj: NewLinear(name+".mlp.proj", 4*nEmbd, nEmbd, bias, projStd, rng),
	}
}

// Forward applies the block to x [b*t, nEmbd].
func (blk *Block) Forward(e *autodiff.Engine, x *tensor.RawTensor, b, t int) *tensor.RawTensor {
	x = e.Add(x, blk.attn.Forward(e, blk.ln1.Forward(e, x), b, t))
	h := blk.proj.Forward(e, e.GELU(blk.fc.Forward(e, blk.ln2.Forward(e, x))))
	return e.Add(x, h)
}

// Parameters returns all block parameters in a stable order.
func (blk *Block) Parameters() []*Parameter {
	var out []*Parameter
	out = append(out, blk.ln1.Parameters()...)
	out = append(out, blk.attn.Parameters()...)
	out = append(out, blk.ln2.Parameters()...)
	out = append(out, blk.fc.Parameters()...)
	out = append(out, blk.proj.Parameters()...)
	return out
}
