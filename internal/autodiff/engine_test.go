package autodiff

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// numericGrad perturbs x[i] by +-h and re-evaluates f, returning the
// centered finite-difference estimate of df/dx[i].
func numericGrad(x *tensor.RawTensor, i int, h float32, f func() float32) float64 {
	orig := x.Data()[i]
	x.Data()[i] = orig + h
	plus := float64(f())
	x.Data()[i] = orig - h
	minus := float64(f())
	x.Data()[i] = orig
	return (plus - minus) / (2 * float64(h))
}

func checkGrad(t *testing.T, name string, analytic *tensor.RawTensor, x *tensor.RawTensor, f func() float32) {
	t.Helper()
	if analytic == nil {
		t.Fatalf("%s: no gradient produced", name)
	}
	for i := range x.Data() {
		want := numericGrad(x, i, 1e-2, f)
		got := float64(analytic.Data()[i])
		tol := 1e-2 + 2e-2*math.Abs(want)
		if math.Abs(got-want) > tol {
			t.Errorf("%s[%d]: analytic %v vs numeric %v", name, i, got, want)
		}
	}
}

func randTensor(shape tensor.Shape, rng *rand.Rand) *tensor.RawTensor {
	return tensor.Randn(shape, 0.5, rng)
}

func TestMatMulCrossEntropyGradients(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x := randTensor(tensor.Shape{3, 4}, rng)
	w := randTensor(tensor.Shape{4, 5}, rng)
	targets := []int32{0, 2, 4}

	e := New()
	loss := func() float32 {
		var out *tensor.RawTensor
		e.NoGrad(func() {
			out = e.CrossEntropy(e.MatMul(x, w), targets)
		})
		return out.Item()
	}

	e.Tape().StartRecording()
	l := e.CrossEntropy(e.MatMul(x, w), targets)
	grads := e.Backward(l)

	checkGrad(t, "x", grads[x], x, loss)
	checkGrad(t, "w", grads[w], w, loss)
}

func TestLayerNormGELUGradients(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	x := randTensor(tensor.Shape{2, 6}, rng)
	gamma := tensor.Ones(tensor.Shape{6})
	beta := tensor.Zeros(tensor.Shape{6})
	w := randTensor(tensor.Shape{6, 3}, rng)
	targets := []int32{1, 2}

	e := New()
	forward := func() *tensor.RawTensor {
		h := e.GELU(e.LayerNorm(x, gamma, beta, 1e-5))
		return e.CrossEntropy(e.MatMul(h, w), targets)
	}
	loss := func() float32 {
		var out *tensor.RawTensor
		e.NoGrad(func() { out = forward() })
		return out.Item()
	}

	e.Tape().StartRecording()
	grads := e.Backward(forward())

	checkGrad(t, "x", grads[x], x, loss)
	checkGrad(t, "gamma", grads[gamma], gamma, loss)
	checkGrad(t, "beta", grads[beta], beta, loss)
}

func TestBroadcastMulGradients(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	x := randTensor(tensor.Shape{2, 3}, rng)
	s := tensor.Scalar(0.7)
	w := randTensor(tensor.Shape{3, 2}, rng)
	targets := []int32{0, 1}

	e := New()
	forward := func() *tensor.RawTensor {
		return e.CrossEntropy(e.MatMul(e.Mul(x, s), w), targets)
	}
	loss := func() float32 {
		var out *tensor.RawTensor
		e.NoGrad(func() { out = forward() })
		return out.Item()
	}

	e.Tape().StartRecording()
	grads := e.Backward(forward())

	checkGrad(t, "x", grads[x], x, loss)
	checkGrad(t, "s", grads[s], s, loss)
}

func TestScalarChainGradients(t *testing.T) {
	// the optimizer update expression is a chain of scalar ops; check the
	// same shapes it uses
	b := tensor.Scalar(0.9)
	g := tensor.Scalar(1.4)
	one := tensor.Scalar(1)

	e := New()
	forward := func() *tensor.RawTensor {
		// (1-b)*g / (sqrt(b^3) + small)
		num := e.Mul(e.Sub(one, b), g)
		den := e.Scale(e.Sqrt(e.Pow(b, 3)), 1, 1e-4)
		return e.Div(num, den)
	}
	loss := func() float32 {
		var out *tensor.RawTensor
		e.NoGrad(func() { out = forward() })
		return out.Item()
	}

	e.Tape().StartRecording()
	out := forward()
	grads := e.Tape().Backward(out, tensor.Scalar(1))

	checkGrad(t, "b", grads[b], b, loss)
	checkGrad(t, "g", grads[g], g, loss)
}

func TestNoGradRecordsNothing(t *testing.T) {
	e := New()
	e.Tape().StartRecording()
	e.NoGrad(func() {
		e.Mul(tensor.Scalar(2), tensor.Scalar(3))
	})
	if e.Tape().Len() != 0 {
		t.Fatalf("NoGrad leaked %d ops onto the tape", e.Tape().Len())
	}
	if !e.Tape().IsRecording() {
		t.Fatal("NoGrad did not restore recording state")
	}
}
