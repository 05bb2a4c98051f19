package ops

import (
	"fmt"

	"github.com/Shyamsaitejamandibi/mada/internal/backend/cpu"
	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// CrossEntropyOp fuses log-softmax and mean negative log-likelihood over
// rows of logits [rows, classes] against integer targets.
//
// Backward uses the closed form (softmax - onehot) / rows, the reason this
// pairing is fused in every framework.
type CrossEntropyOp struct {
	logits  *tensor.RawTensor
	targets []int32
	output  *tensor.RawTensor
}

// NewCrossEntropy creates a CrossEntropyOp. len(targets) must equal the
// number of logit rows.
func NewCrossEntropy(logits *tensor.RawTensor, targets []int32) *CrossEntropyOp {
	ls := logits.Shape()
	if logits.Rank() != 2 || ls[0] != len(targets) {
		panic(fmt.Sprintf("ops: CrossEntropy logits %v vs %d targets", ls, len(targets)))
	}
	loss := cpu.CrossEntropy(logits.Data(), targets, ls[0], ls[1])
	return &CrossEntropyOp{logits: logits, targets: targets, output: tensor.Scalar(loss)}
}

// Backward computes dlogits scaled by the upstream scalar gradient.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor) []*tensor.RawTensor {
	ls := op.logits.Shape()
	dl := cpu.CrossEntropyBackward(op.logits.Data(), op.targets, ls[0], ls[1], outputGrad.Item())
	return []*tensor.RawTensor{mustFromSlice(dl, ls)}
}

// Inputs returns [logits]. Targets are not differentiable.
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.logits} }

// Output returns the scalar mean loss.
func (op *CrossEntropyOp) Output() *tensor.RawTensor { return op.output }
