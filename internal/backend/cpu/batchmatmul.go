package cpu

import "github.com/Shyamsaitejamandibi/mada/internal/parallel"

// BatchMatMul computes C[g] = A[g] @ B[g] for g in [0, batch), with
// A [batch,m,k], B [batch,k,n] and C [batch,m,n]. Batches run in parallel.
func BatchMatMul(a, b []float32, batch, m, k, n int) []float32 {
	out := make([]float32, batch*m*n)
	parallel.For(batch, func(g int) {
		aG := a[g*m*k : (g+1)*m*k]
		bG := b[g*k*n : (g+1)*k*n]
		oG := out[g*m*n : (g+1)*m*n]
		for i := 0; i < m; i++ {
			row := oG[i*n : (i+1)*n]
			for p := 0; p < k; p++ {
				av := aG[i*k+p]
				if av == 0 {
					continue
				}
				bRow := bG[p*n : (p+1)*n]
				for j := range row {
					row[j] += av * bRow[j]
				}
			}
		}
	}, par)
	return out
}

// BatchMatMulTB computes C[g] = A[g] @ B[g]^T for A [batch,m,k] and
// B [batch,n,k], returning C [batch,m,n]. This is the attention-score shape:
// scores = Q @ K^T without materializing the transpose.
func BatchMatMulTB(a, b []float32, batch, m, k, n int) []float32 {
	out := make([]float32, batch*m*n)
	parallel.For(batch, func(g int) {
		aG := a[g*m*k : (g+1)*m*k]
		bG := b[g*n*k : (g+1)*n*k]
		oG := out[g*m*n : (g+1)*m*n]
		for i := 0; i < m; i++ {
			aRow := aG[i*k : (i+1)*k]
			for j := 0; j < n; j++ {
				bRow := bG[j*k : (j+1)*k]
				var sum float32
				for p := 0; p < k; p++ {
					sum += aRow[p] * bRow[p]
				}
				oG[i*n+j] = sum
			}
		}
	}, par)
	return out
}

// BatchMatMulTA computes C[g] = A[g]^T @ B[g] for A [batch,k,m] and
// B [batch,k,n], returning C [batch,m,n].
func BatchMatMulTA(a, b []float32, batch, m, k, n int) []float32 {
	out := make([]float32, batch*m*n)
	parallel.For(batch, func(g int) {
		aG := a[g*k*m : (g+1)*k*m]
		bG := b[g*k*n : (g+1)*k*n]
		oG := out[g*m*n : (g+1)*m*n]
		for i := 0; i < m; i++ {
			row := oG[i*n : (i+1)*n]
			for p := 0; p < k; p++ {
				av := aG[p*m+i]
				if av == 0 {
					continue
				}
				bRow := bG[p*n : (p+1)*n]
				for j := range row {
					row[j] += av * bRow[j]
				}
			}
		}
	}, par)
	return out
}
