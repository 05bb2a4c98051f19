// Package autodiff implements tape-based reverse-mode automatic
// differentiation over RawTensors.
//
// The Engine records every operation it executes onto a GradientTape while
// recording is enabled. Backward walks the tape in reverse and returns a
// map from input tensor identity to accumulated gradient. The same
// traversal that produces model parameter gradients also produces
// optimizer hyperparameter gradients whenever the parameter update was
// replayed onto the tape — that dual population is what makes
// hypergradient descent work here.
package autodiff

import (
	"github.com/Shyamsaitejamandibi/mada/internal/autodiff/ops"
	"github.com/Shyamsaitejamandibi/mada/internal/backend/cpu"
	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass.
type GradientTape struct {
	operations []ops.Operation
	recording  bool
}

// NewGradientTape creates an empty, non-recording tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{operations: make([]ops.Operation, 0, 256)}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() { t.recording = true }

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() { t.recording = false }

// IsRecording reports whether the tape is currently recording.
func (t *GradientTape) IsRecording() bool { return t.recording }

// Len returns the number of recorded operations.
func (t *GradientTape) Len() int { return len(t.operations) }

// Record appends an operation if recording is enabled.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear drops all recorded operations. Recording state is preserved.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
}

// Backward walks the tape in reverse from output, accumulating gradients
// for every tensor that participates in the graph. The output is seeded
// with outputGrad (pass a ones scalar for a scalar loss).
//
// Operations whose output received no gradient are skipped: side branches
// that never reach the loss contribute nothing.
func (t *GradientTape) Backward(output, outputGrad *tensor.RawTensor) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor, len(t.operations))
	grads[output] = outputGrad

	wasRecording := t.recording
	t.recording = false
	defer func() { t.recording = wasRecording }()

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		outGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}
		inputGrads := op.Backward(outGrad)
		inputs := op.Inputs()
		for j, in := range inputs {
			ig := inputGrads[j]
			if ig == nil {
				continue
			}
			if existing, ok := grads[in]; ok {
				// Clone before accumulating: the stored gradient may be
				// aliased by another op's backward output.
				acc := existing.Clone()
				cpu.AccumulateInto(acc.Data(), ig.Data())
				grads[in] = acc
			} else {
				grads[in] = ig
			}
		}
	}
	return grads
}
