package cpu

import (
	"math"

	"github.com/Shyamsaitejamandibi/mada/internal/parallel"
)

// LayerNorm normalizes each row of x [rows, dim] to zero mean and unit
// variance, then scales by gamma and shifts by beta (both [dim]).
// It returns the output plus the normalized activations and reciprocal
// standard deviations the backward pass needs.
func LayerNorm(x, gamma, beta []float32, rows, dim int, eps float32) (out, xhat, rstd []float32) {
	out = make([]float32, len(x))
	xhat = make([]float32, len(x))
	rstd = make([]float32, rows)
	parallel.For(rows, func(r int) {
		row := x[r*dim : (r+1)*dim]

		var mean float32
		for _, v := range row {
			mean += v
		}
		mean /= float32(dim)

		var variance float32
		for _, v := range row {
			d := v - mean
			variance += d * d
		}
		variance /= float32(dim)

		rs := float32(1 / math.Sqrt(float64(variance+eps)))
		rstd[r] = rs
		for i, v := range row {
			h := (v - mean) * rs
			xhat[r*dim+i] = h
			out[r*dim+i] = h*gamma[i] + beta[i]
		}
	}, par)
	return out, xhat, rstd
}

// LayerNormBackward computes input, gamma and beta gradients from the
// upstream gradient and the cached forward intermediates:
//
//	dx = rstd * (dy*gamma - mean(dy*gamma) - xhat * mean(dy*gamma*xhat))
func LayerNormBackward(grad, xhat, rstd, gamma []float32, rows, dim int) (dx, dgamma, dbeta []float32) {
	dx = make([]float32, len(grad))
	dgamma = make([]float32, dim)
	dbeta = make([]float32, dim)
	for r := 0; r < rows; r++ {
		gRow := grad[r*dim : (r+1)*dim]
		hRow := xhat[r*dim : (r+1)*dim]

		var sumDg, sumDgH float32
		for i := range gRow {
			dg := gRow[i] * gamma[i]
			sumDg += dg
			sumDgH += dg * hRow[i]
		}
		meanDg := sumDg / float32(dim)
		meanDgH := sumDgH / float32(dim)

		for i := range gRow {
			dg := gRow[i] * gamma[i]
			dx[r*dim+i] = rstd[r] * (dg - meanDg - hRow[i]*meanDgH)
			dgamma[i] += gRow[i] * hRow[i]
			dbeta[i] += gRow[i]
		}
	}
	return dx, dgamma, dbeta
}
