package nn

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/Shyamsaitejamandibi/mada/internal/autodiff"
	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// Config describes the GPT architecture. The six architecture fields
// (NLayer, NHead, NEmbd, BlockSize, Bias, VocabSize) are the ones a
// checkpoint must match exactly on resume; Dropout may differ.
type Config struct {
	NLayer    int
	NHead     int
	NEmbd     int
	BlockSize int
	Bias      bool
	VocabSize int
	Dropout   float64 // retained in checkpoints; this implementation trains at 0
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	switch {
	case c.NLayer <= 0 || c.NHead <= 0 || c.NEmbd <= 0:
		return fmt.Errorf("nn: layer/head/embedding counts must be positive")
	case c.NEmbd%c.NHead != 0:
		return fmt.Errorf("nn: embedding width %d not divisible by %d heads", c.NEmbd, c.NHead)
	case c.BlockSize <= 0:
		return fmt.Errorf("nn: block size must be positive")
	case c.VocabSize <= 0:
		return fmt.Errorf("nn: vocab size must be positive")
	}
	return nil
}

// GPT is a compact decoder-only transformer language model.
//
// Forward takes flattened token IDs plus the batch geometry and returns
// logits and, when targets are given, the scalar mean cross-entropy loss.
type GPT struct {
	config Config
	wte    *Parameter // token embeddings [vocab, nEmbd]
	wpe    *Parameter // position embeddings [blockSize, nEmbd]
	blocks []*Block
	lnF    *LayerNorm
	head   *Linear
	params []*Parameter
}

// NewGPT builds a model with GPT-2 style initialization: normal(0, 0.02)
// everywhere, residual projections scaled down by sqrt(2*nLayer).
func NewGPT(config Config, seed int64) (*GPT, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))
	projStd := 0.02 / math.Sqrt(2*float64(config.NLayer))

	g := &GPT{
		config: config,
		wte:    NewParameter("wte.weight", tensor.Randn(tensor.Shape{config.VocabSize, config.NEmbd}, 0.02, rng)),
		wpe:    NewParameter("wpe.weight", tensor.Randn(tensor.Shape{config.BlockSize, config.NEmbd}, 0.02, rng)),
		lnF:    NewLayerNorm("ln_f", config.NEmbd),
		head:   NewLinear("head", config.NEmbd, config.VocabSize, false, 0.02, rng),
	}
	for i := 0; i < config.NLayer; i++ {
		g.blocks = append(g.blocks, NewBlock(fmt.Sprintf("h.%d", i), config.NEmbd, config.NHead, config.Bias, projStd, rng))
	}

	g.params = append(g.params, g.wte, g.wpe)
	for _, blk := range g.blocks {
		g.params = append(g.params, blk.Parameters()...)
	}
	g.params = append(g.params, g.lnF.Parameters()...)
	g.params = append(g.params, g.head.Parameters()...)
	return g, nil
}

// Config returns the architecture configuration.
func (g *GPT) Config() Config { return g.config }

// Forward runs the model over inputs (flattened [b*t] token IDs). When
// targets is non-nil the scalar mean cross-entropy loss is returned as
// well; otherwise loss is nil.
func (g *GPT) Forward(e *autodiff.Engine, inputs, targets []int32, b, t int) (logits, loss *tensor.RawTensor) {
	if t > g.config.BlockSize {
		panic(fmt.Sprintf("nn: sequence length %d exceeds block size %d", t, g.config.BlockSize))
	}
	if len(inputs) != b*t {
		panic(fmt.Sprintf("nn: %d inputs for geometry %dx%d", len(inputs), b, t))
	}

	pos := make([]int32, b*t)
	for i := range pos {
		pos[i] = int32(i % t)
	}

	x := e.Add(e.Embedding(g.wte.Tensor(), inputs), e.Embedding(g.wpe.Tensor(), pos))
	for _, blk := range g.blocks {
		x = blk.Forward(e, x, b, t)
	}
	x = g.lnF.Forward(e, x)
	logits = g.head.Forward(e, x) // [b*t, vocab]

	if targets != nil {
		loss = e.CrossEntropy(logits, targets)
	}
	return logits, loss
}

// Parameters returns all trainable parameters in a stable order.
func (g *GPT) Parameters() []*Parameter { return g.params }

// NumParams returns the total parameter count.
func (g *GPT) NumParams() int {
	n := 0
	for _, p := range g.params {
		n += p.Tensor().NumElements()
	}
	return n
}

// StateDict snapshots the parameters by name.
func (g *GPT) StateDict() map[string]*tensor.RawTensor {
	return stateDictOf(g.params)
}

// LoadStateDict restores parameters from a snapshot. All parameters must
// be present with matching shapes.
func (g *GPT) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return loadStateDictInto(g.params, stateDict)
}

// DecayParameters returns the parameters subject to decoupled weight
// decay: everything of rank >= 2 (matrices and embeddings), excluding
// biases and norm scales.
func (g *GPT) DecayParameters() []*Parameter {
	var out []*Parameter
	for _, p := range g.params {
		if p.Rank() >= 2 {
			out = append(out, p)
		}
	}
	return out
}

// EstimateThroughput returns processed tokens per second for one
// iteration that consumed batchTokens tokens in elapsed wall time.
func (g *GPT) EstimateThroughput(batchTokens int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(batchTokens) / elapsed.Seconds()
}
