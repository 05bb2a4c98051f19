package cpu

import (
	"math"

	"github.com/Shyamsaitejamandibi/mada/internal/parallel"
)

// CausalSoftmax computes a row-wise softmax over attention scores
// [batch, t, t], masking positions j > i of each row to zero probability.
// The max-subtraction trick keeps exponentials in range.
func CausalSoftmax(scores []float32, batch, t int) []float32 {
	out := make([]float32, len(scores))
	parallel.For(batch, func(g int) {
		for i := 0; i < t; i++ {
			row := scores[(g*t+i)*t : (g*t+i)*t+t]
			oRow := out[(g*t+i)*t : (g*t+i)*t+t]

			maxVal := float32(math.Inf(-1))
			for j := 0; j <= i; j++ {
				if row[j] > maxVal {
					maxVal = row[j]
				}
			}
			var sum float32
			for j := 0; j <= i; j++ {
				e := float32(math.Exp(float64(row[j] - maxVal)))
				oRow[j] = e
				sum += e
			}
			inv := 1 / sum
			for j := 0; j <= i; j++ {
				oRow[j] *= inv
			}
			// j > i stays exactly zero.
		}
	}, par)
	return out
}

// CausalSoftmaxBackward computes dscores from dprobs given the forward
// probabilities: ds = p * (dp - sum_j dp_j * p_j), row-wise. Masked
// positions carry zero probability and therefore zero gradient.
func CausalSoftmaxBackward(probs, grad []float32, batch, t int) []float32 {
	out := make([]float32, len(probs))
	parallel.For(batch, func(g int) {
		for i := 0; i < t; i++ {
			off := (g*t + i) * t
			p := probs[off : off+t]
			dp := grad[off : off+t]
			o := out[off : off+t]

			var dot float32
			for j := 0; j <= i; j++ {
				dot += dp[j] * p[j]
			}
			for j := 0; j <= i; j++ {
				o[j] = p[j] * (dp[j] - dot)
			}
		}
	}, par)
	return out
}
