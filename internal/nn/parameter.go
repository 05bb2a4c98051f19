package nn

import "github.com/Shyamsaitejamandibi/mada/internal/tensor"

// Parameter is a trainable tensor with a stable name.
//
// The tensor pointer is replaceable: the differentiable optimizer swaps in
// a graph-connected result tensor after each replayed update, so gradient
// can flow from the next loss back through the update rule into the
// optimizer's hyperparameters. Code that needs the current values must go
// through Tensor() rather than caching the raw pointer.
type Parameter struct {
	name   string
	tensor *tensor.RawTensor
}

// NewParameter creates a parameter around an initialized tensor.
func NewParameter(name string, t *tensor.RawTensor) *Parameter {
	return &Parameter{name: name, tensor: t}
}

// Name returns the parameter's fully qualified name (e.g. "h.0.attn.proj.weight").
func (p *Parameter) Name() string { return p.name }

// Tensor returns the current value tensor.
func (p *Parameter) Tensor() *tensor.RawTensor { return p.tensor }

// SetTensor replaces the value tensor. Shapes must match.
func (p *Parameter) SetTensor(t *tensor.RawTensor) {
	if !p.tensor.Shape().Equal(t.Shape()) {
		panic("nn: SetTensor shape mismatch for " + p.name)
	}
	p.tensor = t
}

// Rank returns the number of dimensions of the value tensor. Decoupled
// weight decay applies only to parameters of rank >= 2.
func (p *Parameter) Rank() int { return p.tensor.Rank() }
