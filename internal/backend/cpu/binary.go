package cpu

import "fmt"

// Binary element-wise operators over broadcastable operands.
//
// The second operand b may be:
//   - the same length as a (element-wise),
//   - a single element (scalar broadcast),
//   - a trailing-dimension vector whose length divides len(a) and whose
//     values repeat every len(b) elements (row-major bias broadcast).
//
// All three cases reduce to indexing b with i % len(b).

func checkBroadcast(n, bn int) {
	if bn == 0 || n%bn != 0 {
		panic(fmt.Sprintf("cpu: cannot broadcast operand of %d elements over %d", bn, n))
	}
}

// Add computes a + b with trailing broadcast of b.
func Add(a, b []float32) []float32 {
	checkBroadcast(len(a), len(b))
	out := make([]float32, len(a))
	bn := len(b)
	for i := range a {
		out[i] = a[i] + b[i%bn]
	}
	return out
}

// Sub computes a - b with trailing broadcast of b.
func Sub(a, b []float32) []float32 {
	checkBroadcast(len(a), len(b))
	out := make([]float32, len(a))
	bn := len(b)
	for i := range a {
		out[i] = a[i] - b[i%bn]
	}
	return out
}

// Mul computes a * b with trailing broadcast of b.
func Mul(a, b []float32) []float32 {
	checkBroadcast(len(a), len(b))
	out := make([]float32, len(a))
	bn := len(b)
	for i := range a {
		out[i] = a[i] * b[i%bn]
	}
	return out
}

// Div computes a / b with trailing broadcast of b.
func Div(a, b []float32) []float32 {
	checkBroadcast(len(a), len(b))
	out := make([]float32, len(a))
	bn := len(b)
	for i := range a {
		out[i] = a[i] / b[i%bn]
	}
	return out
}

// AccumulateInto adds src into dst element-wise. Lengths must match.
func AccumulateInto(dst, src []float32) {
	if len(dst) != len(src) {
		panic(fmt.Sprintf("cpu: accumulate length mismatch %d vs %d", len(dst), len(src)))
	}
	for i := range dst {
		dst[i] += src[i]
	}
}

// ReduceBroadcast sums a full-size gradient down to the shape of a
// broadcast operand: out[j] = sum over i with i % bn == j of grad[i].
// This is the backward counterpart of the i % len(b) broadcast above.
func ReduceBroadcast(grad []float32, bn int) []float32 {
	checkBroadcast(len(grad), bn)
	out := make([]float32, bn)
	for i, g := range grad {
		out[i%bn] += g
	}
	return out
}
