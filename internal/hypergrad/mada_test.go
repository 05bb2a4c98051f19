package hypergrad

import (
	"math"
	"testing"

	"github.com/Shyamsaitejamandibi/mada/internal/autodiff"
	"github.com/Shyamsaitejamandibi/mada/internal/nn"
	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// quadModel is a one-parameter model with loss w*w; its gradient is 2w,
// which makes every optimizer quantity computable by hand.
type quadModel struct {
	w *nn.Parameter
}

func newQuadModel(w0 float32) *quadModel {
	return &quadModel{w: nn.NewParameter("w", tensor.Scalar(w0))}
}

func (m *quadModel) Parameters() []*nn.Parameter { return []*nn.Parameter{m.w} }

func (m *quadModel) Forward(e *autodiff.Engine, _, _ []int32, _, _ int) (logits, loss *tensor.RawTensor) {
	loss = e.Mul(m.w.Tensor(), m.w.Tensor())
	return loss, loss
}

func newTestWrapper(w0, alpha float32, mode AblationMode) (*Wrapper, *quadModel) {
	model := newQuadModel(w0)
	hp := NewSet(Values{Beta1: 0.9, Beta2: 0.99, Beta3: 0, Rho: 1, Gamma: 1, Alpha: alpha})
	w := NewWrapper(model, autodiff.New(), NewMada(hp), NewMetaSGD(DefaultMetaRules()), mode)
	return w, model
}

func runIteration(w *Wrapper) {
	w.Begin()
	w.ZeroGrad()
	_, loss := w.Forward(nil, nil, 1, 1)
	w.Backward(loss)
	w.MaskGrads()
	w.Step()
	w.ZeroGrad()
}

// adamReference mirrors one Adam step in float64.
func adamReference(w, g, m, v float64, b1, b2, alpha float64, t int) (wNext, mNext, vNext float64) {
	mNext = b1*m + (1-b1)*g
	vNext = b2*v + (1-b2)*g*g
	mhat := mNext / (1 - math.Pow(b1, float64(t)))
	vhat := vNext / (1 - math.Pow(b2, float64(t)))
	wNext = w - alpha*mhat/(math.Sqrt(vhat)+1e-8)
	return wNext, mNext, vNext
}

func TestMadaReducesToAdam(t *testing.T) {
	// beta3=0, rho=1, gamma=1 and a frozen hyperparameter set must track
	// Adam exactly.
	wrap, model := newTestWrapper(2.0, 0.1, ModeAdam)

	w, m, v := 2.0, 0.0, 0.0
	for step := 1; step <= 3; step++ {
		g := 2 * w
		w, m, v = adamReference(w, g, m, v, 0.9, 0.99, 0.1, step)
		runIteration(wrap)

		got := float64(model.w.Tensor().Item())
		if math.Abs(got-w) > 1e-5 {
			t.Fatalf("step %d: w = %v, Adam reference %v", step, got, w)
		}
	}
}

func TestReplayReproducesAppliedUpdate(t *testing.T) {
	wrap, model := newTestWrapper(2.0, 0.1, ModeFull)
	runIteration(wrap)

	applied := model.w.Tensor().Item()
	wrap.Begin() // replays the cached update symbolically
	replayed := model.w.Tensor().Item()
	if applied != replayed {
		t.Fatalf("replayed value %v differs from applied value %v", replayed, applied)
	}
	if wrap.Engine().Tape().Len() == 0 {
		t.Fatal("replay recorded nothing; hyperparameters cannot receive gradient")
	}
}

func TestHypergradientsFlowOnSecondIteration(t *testing.T) {
	wrap, _ := newTestWrapper(2.0, 0.1, ModeFull)
	runIteration(wrap)

	// Second iteration: the replayed update connects the loss to the
	// hyperparameter leaves.
	wrap.Begin()
	wrap.ZeroGrad()
	_, loss := wrap.Forward(nil, nil, 1, 1)
	wrap.Backward(loss)

	for _, name := range []string{Beta1, Gamma, Alpha} {
		g := wrap.Hyperparams().Get(name).Grad()
		if g == nil || g.Item() == 0 {
			t.Errorf("%s: no hypergradient after replayed update", name)
		}
	}

	wrap.MaskGrads()
	if g := wrap.Hyperparams().Get(Alpha).Grad().Item(); g != 0 {
		t.Errorf("alpha gradient %v survived masking", g)
	}
	if g := wrap.Hyperparams().Get(Beta1).Grad().Item(); g == 0 {
		t.Error("beta1 gradient zeroed by full-mode mask")
	}
}

func TestHyperparametersMoveOnlyWhenUnmasked(t *testing.T) {
	frozen, _ := newTestWrapper(2.0, 0.1, ModeAdam)
	learning, _ := newTestWrapper(2.0, 0.1, ModeFull)

	for i := 0; i < 3; i++ {
		runIteration(frozen)
		runIteration(learning)
	}

	if got := frozen.Hyperparams().Get(Beta1).Value(); got != 0.9 {
		t.Errorf("adam mode: beta1 moved to %v", got)
	}
	if got := learning.Hyperparams().Get(Beta1).Value(); got == 0.9 {
		t.Error("full mode: beta1 never moved despite hypergradients")
	}
}

func TestFirstIterationHasNoHypergradient(t *testing.T) {
	wrap, _ := newTestWrapper(2.0, 0.1, ModeFull)
	wrap.Begin()
	wrap.ZeroGrad()
	_, loss := wrap.Forward(nil, nil, 1, 1)
	wrap.Backward(loss)

	for _, h := range wrap.Hyperparams().All() {
		if h.Grad().Item() != 0 {
			t.Errorf("%s: gradient %v before any replayed update", h.Name(), h.Grad().Item())
		}
	}
}

func TestClipHyperGradsBoundsEachMember(t *testing.T) {
	wrap, _ := newTestWrapper(2.0, 0.1, ModeFull)
	hp := wrap.Hyperparams()
	hp.Get(Beta1).SetGrad(tensor.Scalar(25))
	hp.Get(Beta2).SetGrad(tensor.Scalar(-3))

	wrap.ClipHyperGrads(10)

	if g := hp.Get(Beta1).Grad().Item(); math.Abs(float64(g)-10) > 1e-4 {
		t.Errorf("beta1 gradient %v, want clipped to ~10", g)
	}
	if g := hp.Get(Beta2).Grad().Item(); g != -3 {
		t.Errorf("beta2 gradient %v changed though under the threshold", g)
	}
}
