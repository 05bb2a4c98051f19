package train

import (
	"fmt"

	"github.com/Shyamsaitejamandibi/mada/internal/data"
	"github.com/Shyamsaitejamandibi/mada/internal/hypergrad"
)

// Evaluator estimates the mean loss over a bounded number of batches
// per split, with gradient recording paused for the duration.
type Evaluator struct {
	wrapper   *hypergrad.Wrapper
	source    *data.Source
	batchSize int
	blockSize int
	iters     int
}

// NewEvaluator builds an evaluator over the wrapper's model.
func NewEvaluator(w *hypergrad.Wrapper, source *data.Source, c Config) *Evaluator {
	return &Evaluator{
		wrapper:   w,
		source:    source,
		batchSize: c.BatchSize,
		blockSize: c.BlockSize,
		iters:     c.EvalIters,
	}
}

// Estimate returns the mean loss over the configured number of batches
// from the split. Recording is paused and restored even on panic, so an
// evaluation mid-iteration never pollutes the training tape.
func (ev *Evaluator) Estimate(split string) (float64, error) {
	var total float64
	var err error
	ev.wrapper.Engine().NoGrad(func() {
		for i := 0; i < ev.iters; i++ {
			inputs, targets, batchErr := ev.source.Batch(split, ev.batchSize, ev.blockSize)
			if batchErr != nil {
				err = batchErr
				return
			}
			_, loss := ev.wrapper.Forward(inputs, targets, ev.batchSize, ev.blockSize)
			total += float64(loss.Item())
		}
	})
	if err != nil {
		return 0, fmt.Errorf("train: evaluate %s: %w", split, err)
	}
	return total / float64(ev.iters), nil
}
