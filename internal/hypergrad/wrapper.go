package hypergrad

import (
	"github.com/Shyamsaitejamandibi/mada/internal/autodiff"
	"github.com/Shyamsaitejamandibi/mada/internal/backend/cpu"
	"github.com/Shyamsaitejamandibi/mada/internal/nn"
	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// Model is what the wrapper trains: a parameterized module with a
// differentiable forward pass.
type Model interface {
	Parameters() []*nn.Parameter
	Forward(e *autodiff.Engine, inputs, targets []int32, b, t int) (logits, loss *tensor.RawTensor)
}

// Wrapper runs the hypergradient training protocol around a model. The
// per-iteration sequence is
//
//	Begin -> ZeroGrad -> {Forward -> Backward}... -> Step
//
// Begin replays the previous parameter update symbolically, so this
// iteration's backward pass also yields gradients with respect to the
// optimizer hyperparameters. Step advances the hyperparameters first
// (on their masked, clipped gradients), then the model parameters.
type Wrapper struct {
	model  Model
	engine *autodiff.Engine
	opt    *Mada
	meta   *MetaSGD
	mode   AblationMode

	grads map[*nn.Parameter]*tensor.RawTensor
}

// NewWrapper assembles the training wrapper.
func NewWrapper(model Model, engine *autodiff.Engine, opt *Mada, meta *MetaSGD, mode AblationMode) *Wrapper {
	return &Wrapper{
		model:  model,
		engine: engine,
		opt:    opt,
		meta:   meta,
		mode:   mode,
		grads:  make(map[*nn.Parameter]*tensor.RawTensor),
	}
}

// Model returns the wrapped model.
func (w *Wrapper) Model() Model { return w.model }

// Engine returns the autodiff engine.
func (w *Wrapper) Engine() *autodiff.Engine { return w.engine }

// Optimizer returns the differentiable optimizer.
func (w *Wrapper) Optimizer() *Mada { return w.opt }

// Meta returns the hyperparameter meta-optimizer.
func (w *Wrapper) Meta() *MetaSGD { return w.meta }

// Mode returns the ablation mode.
func (w *Wrapper) Mode() AblationMode { return w.mode }

// Hyperparams returns the hyperparameter set.
func (w *Wrapper) Hyperparams() *Set { return w.opt.Hyperparams() }

// SetLearningRate writes the scheduled rate into alpha in place, keeping
// the tensor's graph identity.
func (w *Wrapper) SetLearningRate(lr float32) {
	w.Hyperparams().Get(Alpha).SetValue(lr)
}

// Begin starts an iteration: the tape is cleared, recording resumes, and
// the previous update is replayed symbolically so hyperparameters join
// the graph. On the first iteration there is no cached update and Begin
// only resets the tape.
func (w *Wrapper) Begin() {
	w.engine.Tape().Clear()
	w.engine.Tape().StartRecording()
	w.opt.Replay(w.engine)
}

// ZeroGrad clears the accumulated parameter gradients and resets every
// hyperparameter gradient to zero.
func (w *Wrapper) ZeroGrad() {
	clear(w.grads)
	for _, h := range w.Hyperparams().All() {
		h.ZeroGrad()
	}
}

// Forward runs the model.
func (w *Wrapper) Forward(inputs, targets []int32, b, t int) (logits, loss *tensor.RawTensor) {
	return w.model.Forward(w.engine, inputs, targets, b, t)
}

// Backward runs the backward pass from loss and accumulates the
// resulting gradients: parameter gradients into the wrapper's buffer,
// hyperparameter gradients into each HyperParam. Hyperparameters not
// reached by the graph (always the case on the first iteration, before
// any replayed update) contribute zero.
func (w *Wrapper) Backward(loss *tensor.RawTensor) {
	all := w.engine.Backward(loss)

	for _, p := range w.model.Parameters() {
		g, ok := all[p.Tensor()]
		if !ok {
			continue
		}
		if acc, ok := w.grads[p]; ok {
			cpu.AccumulateInto(acc.Data(), g.Data())
		} else {
			w.grads[p] = g.Clone()
		}
	}

	for _, h := range w.Hyperparams().All() {
		g, ok := all[h.ValueTensor()]
		if !ok {
			continue
		}
		acc := h.Grad()
		if acc == nil {
			acc = tensor.Scalar(0)
			h.SetGrad(acc)
		}
		cpu.AccumulateInto(acc.Data(), g.Data())
	}
}

// Grads returns the accumulated parameter gradients.
func (w *Wrapper) Grads() map[*nn.Parameter]*tensor.RawTensor { return w.grads }

// ClipGrads scales the accumulated parameter gradients so their global
// norm does not exceed maxNorm, returning the pre-clip norm. A
// non-positive maxNorm disables clipping.
func (w *Wrapper) ClipGrads(maxNorm float64) float64 {
	var bufs [][]float32
	for _, p := range w.model.Parameters() {
		if g, ok := w.grads[p]; ok {
			bufs = append(bufs, g.Data())
		}
	}
	if maxNorm <= 0 {
		return cpu.GlobalNorm(bufs)
	}
	return cpu.ClipGlobalNorm(bufs, maxNorm)
}

// ClipHyperGrads clips each hyperparameter gradient independently to
// maxNorm. Hyperparameter gradients are much smaller than parameter
// gradients and get their own, looser threshold. A non-positive maxNorm
// disables clipping.
func (w *Wrapper) ClipHyperGrads(maxNorm float64) {
	if maxNorm <= 0 {
		return
	}
	for _, h := range w.Hyperparams().All() {
		if g := h.Grad(); g != nil {
			cpu.ClipGlobalNorm([][]float32{g.Data()}, maxNorm)
		}
	}
}

// MaskGrads applies the ablation mask, zeroing the gradients of every
// hyperparameter the mode freezes. Runs once per iteration, immediately
// after the backward pass and before clipping.
func (w *Wrapper) MaskGrads() {
	w.mode.ApplyMask(w.Hyperparams())
}

// Step finishes the iteration: the meta-optimizer advances the
// hyperparameters on their masked, clipped gradients, and only then
// does the differentiable optimizer apply the parameter updates with
// the freshly advanced hyperparameter values.
func (w *Wrapper) Step() {
	w.meta.Step(w.Hyperparams())
	w.opt.Step(w.engine, w.model.Parameters(), w.grads)
}
