package cpu

import "github.com/Shyamsaitejamandibi/mada/internal/parallel"

var par = parallel.DefaultConfig()

// MatMul computes C = A @ B for A [m,k] and B [k,n], returning C [m,n].
// Rows of the output are computed in parallel.
func MatMul(a, b []float32, m, k, n int) []float32 {
	out := make([]float32, m*n)
	parallel.For(m, func(i int) {
		row := out[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			av := a[i*k+p]
			if av == 0 {
				continue
			}
			bRow := b[p*n : (p+1)*n]
			for j := range row {
				row[j] += av * bRow[j]
			}
		}
	}, par)
	return out
}

// MatMulTB computes C = A @ B^T for A [m,k] and B [n,k], returning C [m,n].
// Used for dA = grad @ W^T in the linear backward pass.
func MatMulTB(a, b []float32, m, k, n int) []float32 {
	out := make([]float32, m*n)
	parallel.For(m, func(i int) {
		aRow := a[i*k : (i+1)*k]
		for j := 0; j < n; j++ {
			bRow := b[j*k : (j+1)*k]
			var sum float32
			for p := 0; p < k; p++ {
				sum += aRow[p] * bRow[p]
			}
			out[i*n+j] = sum
		}
	}, par)
	return out
}

// MatMulTA computes C = A^T @ B for A [k,m] and B [k,n], returning C [m,n].
// Used for dW = X^T @ grad in the linear backward pass.
func MatMulTA(a, b []float32, m, k, n int) []float32 {
	out := make([]float32, m*n)
	// Accumulate over k sequentially; parallelize over output rows.
	parallel.For(m, func(i int) {
		row := out[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			av := a[p*m+i]
			if av == 0 {
				continue
			}
			bRow := b[p*n : (p+1)*n]
			for j := range row {
				row[j] += av * bRow[j]
			}
		}
	}, par)
	return out
}
