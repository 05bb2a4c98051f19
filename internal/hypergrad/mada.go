package hypergrad

import (
	"fmt"

	"github.com/Shyamsaitejamandibi/mada/internal/autodiff"
	"github.com/Shyamsaitejamandibi/mada/internal/nn"
	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

const madaEps = 1e-8

// momentState holds the per-parameter optimizer buffers: first moment m,
// second moment v, and the auxiliary second moment n blended in by rho.
type momentState struct {
	m, v, n *tensor.RawTensor
}

// cachedUpdate captures everything needed to rebuild one parameter update
// symbolically: the pre-update value, the gradient, the pre-update moment
// buffers, and the step count for bias correction. The hyperparameter
// values are deliberately absent; the replay reads them live, and they do
// not change between the numeric update and its replay.
type cachedUpdate struct {
	param      *nn.Parameter
	prev       *tensor.RawTensor
	grad       *tensor.RawTensor
	m0, v0, n0 *tensor.RawTensor
	step       int
}

// Mada is the differentiable optimizer. Its update rule blends two
// second-moment populations:
//
//	m = b1*m + (1-b1)*g
//	v = b2*v + (1-b2)*g^2
//	n = b3*n + (1-b3)*g^2
//	veff = rho*vhat + (1-rho)*nhat        (hats are bias-corrected)
//	w' = w - alpha * gamma * mhat / (sqrt(veff) + eps)
//
// With beta3=0, rho=1, gamma=1 this is exactly Adam.
//
// Step applies the update numerically and caches its ingredients; Begin
// replays the identical expression onto the tape with the hyperparameter
// scalars as leaves, so the next backward pass produces hypergradients.
type Mada struct {
	hp    *Set
	state map[*nn.Parameter]*momentState
	cache []cachedUpdate
	step  int
}

// NewMada creates the optimizer over a hyperparameter set. Moment buffers
// are allocated lazily on a parameter's first gradient.
func NewMada(hp *Set) *Mada {
	return &Mada{hp: hp, state: make(map[*nn.Parameter]*momentState)}
}

// Hyperparams returns the hyperparameter set.
func (o *Mada) Hyperparams() *Set { return o.hp }

// StepCount returns the number of updates applied so far.
func (o *Mada) StepCount() int { return o.step }

// Step applies one numeric parameter update for every parameter with a
// gradient, advances the moment buffers, and caches the update
// ingredients for the next Begin. Updates run in the given parameter
// order for reproducibility. Recording is off throughout; nothing lands
// on the tape.
func (o *Mada) Step(e *autodiff.Engine, params []*nn.Parameter, grads map[*nn.Parameter]*tensor.RawTensor) {
	o.step++
	o.cache = o.cache[:0]
	e.NoGrad(func() {
		for _, p := range params {
			g := grads[p]
			if g == nil {
				continue
			}
			st, ok := o.state[p]
			if !ok {
				st = &momentState{
					m: tensor.Zeros(g.Shape()),
					v: tensor.Zeros(g.Shape()),
					n: tensor.Zeros(g.Shape()),
				}
				o.state[p] = st
			}
			u := cachedUpdate{
				param: p,
				prev:  p.Tensor().Clone(),
				grad:  g.Clone(),
				m0:    st.m,
				v0:    st.v,
				n0:    st.n,
				step:  o.step,
			}
			next, m1, v1, n1 := o.expand(e, u)
			st.m, st.v, st.n = m1, v1, n1
			p.SetTensor(next)
			o.cache = append(o.cache, u)
		}
	})
}

// Replay rebuilds the cached updates symbolically. The caller must have
// cleared the tape and enabled recording; each parameter receives a
// graph-connected result tensor whose history reaches the hyperparameter
// leaves. Because no hyperparameter changes between Step and Replay, the
// replayed values are bitwise identical to the numeric ones.
func (o *Mada) Replay(e *autodiff.Engine) {
	for _, u := range o.cache {
		next, _, _, _ := o.expand(e, u)
		u.param.SetTensor(next)
	}
}

// expand builds the update expression for one parameter through the
// engine. Under recording it writes the symbolic graph; under NoGrad it
// is a plain numeric evaluation of the same expression.
func (o *Mada) expand(e *autodiff.Engine, u cachedUpdate) (next, m1, v1, n1 *tensor.RawTensor) {
	one := tensor.Scalar(1)
	b1 := o.hp.Get(Beta1).ValueTensor()
	b2 := o.hp.Get(Beta2).ValueTensor()
	b3 := o.hp.Get(Beta3).ValueTensor()
	rho := o.hp.Get(Rho).ValueTensor()
	gamma := o.hp.Get(Gamma).ValueTensor()
	alpha := o.hp.Get(Alpha).ValueTensor()

	gg := e.Mul(u.grad, u.grad)
	m1 = e.Add(e.Mul(b1, u.m0), e.Mul(e.Sub(one, b1), u.grad))
	v1 = e.Add(e.Mul(b2, u.v0), e.Mul(e.Sub(one, b2), gg))
	n1 = e.Add(e.Mul(b3, u.n0), e.Mul(e.Sub(one, b3), gg))

	t := float64(u.step)
	mhat := e.Div(m1, e.Sub(one, e.Pow(b1, t)))
	vhat := e.Div(v1, e.Sub(one, e.Pow(b2, t)))
	nhat := e.Div(n1, e.Sub(one, e.Pow(b3, t)))

	veff := e.Add(e.Mul(rho, vhat), e.Mul(e.Sub(one, rho), nhat))
	denom := e.Scale(e.Sqrt(veff), 1, madaEps)
	update := e.Mul(alpha, e.Div(e.Mul(gamma, mhat), denom))
	next = e.Sub(u.prev, update)
	return next, m1, v1, n1
}

// StateDict snapshots the moment buffers and step count by parameter
// name. Keys follow the layout <param>.m, <param>.v, <param>.n.
func (o *Mada) StateDict(params []*nn.Parameter) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor, 3*len(o.state))
	for _, p := range params {
		st, ok := o.state[p]
		if !ok {
			continue
		}
		out[p.Name()+".m"] = st.m.Clone()
		out[p.Name()+".v"] = st.v.Clone()
		out[p.Name()+".n"] = st.n.Clone()
	}
	return out
}

// LoadStateDict restores the moment buffers for the given parameters and
// resets the step count. Parameters absent from the dict stay lazily
// initialized; present buffers must match the parameter's shape.
func (o *Mada) LoadStateDict(params []*nn.Parameter, dict map[string]*tensor.RawTensor, step int) error {
	for _, p := range params {
		m, okM := dict[p.Name()+".m"]
		if !okM {
			continue
		}
		v, okV := dict[p.Name()+".v"]
		n, okN := dict[p.Name()+".n"]
		if !okV || !okN {
			return fmt.Errorf("hypergrad: incomplete optimizer state for %q", p.Name())
		}
		for _, buf := range []*tensor.RawTensor{m, v, n} {
			if !buf.Shape().Equal(p.Tensor().Shape()) {
				return fmt.Errorf("hypergrad: optimizer state shape %v does not match %q %v",
					buf.Shape(), p.Name(), p.Tensor().Shape())
			}
		}
		o.state[p] = &momentState{m: m.Clone(), v: v.Clone(), n: n.Clone()}
	}
	o.step = step
	o.cache = nil
	return nil
}
