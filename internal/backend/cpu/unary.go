package cpu

import "math"

const geluCoef = 0.7978845608028654 // sqrt(2/pi)

// GELU applies the tanh-approximated Gaussian error linear unit:
// 0.5*x*(1 + tanh(sqrt(2/pi)*(x + 0.044715*x^3))).
func GELU(x []float32) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		u := float64(v)
		out[i] = float32(0.5 * u * (1 + math.Tanh(geluCoef*(u+0.044715*u*u*u))))
	}
	return out
}

// GELUBackward computes dx from the upstream gradient and the forward input.
func GELUBackward(x, grad []float32) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		u := float64(v)
		inner := geluCoef * (u + 0.044715*u*u*u)
		th := math.Tanh(inner)
		sech2 := 1 - th*th
		dInner := geluCoef * (1 + 3*0.044715*u*u)
		d := 0.5*(1+th) + 0.5*u*sech2*dInner
		out[i] = grad[i] * float32(d)
	}
	return out
}

// Sqrt computes element-wise square roots.
func Sqrt(x []float32) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(math.Sqrt(float64(v)))
	}
	return out
}

// Pow computes element-wise x^p for a constant exponent.
func Pow(x []float32, p float64) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(math.Pow(float64(v), p))
	}
	return out
}

// Scale computes c*x + d element-wise.
func Scale(x []float32, c, d float32) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = c*v + d
	}
	return out
}
