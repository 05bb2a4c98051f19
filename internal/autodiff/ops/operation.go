// Package ops defines the differentiable operations recorded on the
// gradient tape.
//
// Each operation captures its input and output tensors during the forward
// pass and knows how to turn the upstream gradient into input gradients.
// Forward compute lives in the cpu kernel package; ops only orchestrate.
package ops

import "github.com/Shyamsaitejamandibi/mada/internal/tensor"

// Operation is one node of the recorded computation graph.
type Operation interface {
	// Backward computes gradients for the inputs given the output gradient.
	// The returned slice is parallel to Inputs(); entries may be nil for
	// inputs that do not receive gradient (e.g. integer indices).
	Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor

	// Inputs returns the input tensors of this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor produced by this operation.
	Output() *tensor.RawTensor
}
