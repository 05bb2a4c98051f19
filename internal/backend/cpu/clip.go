package cpu

import "math"

// GlobalNorm returns the L2 norm over the concatenation of all buffers.
func GlobalNorm(buffers [][]float32) float64 {
	var sum float64
	for _, buf := range buffers {
		for _, v := range buf {
			sum += float64(v) * float64(v)
		}
	}
	return math.Sqrt(sum)
}

// ClipGlobalNorm rescales all buffers in place so their joint L2 norm does
// not exceed maxNorm. Returns the pre-clip norm.
func ClipGlobalNorm(buffers [][]float32, maxNorm float64) float64 {
	norm := GlobalNorm(buffers)
	if norm > maxNorm {
		scale := float32(maxNorm / (norm + 1e-6))
		for _, buf := range buffers {
			for i := range buf {
				buf[i] *= scale
			}
		}
	}
	return norm
}
