package train

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Shyamsaitejamandibi/mada/internal/data"
	"github.com/Shyamsaitejamandibi/mada/internal/hypergrad"
	"github.com/Shyamsaitejamandibi/mada/internal/nn"
)

// Trainer runs the meta-optimization loop. Each iteration is the fixed
// sequence: bind the scheduled rate, begin a fresh graph (replaying the
// previous update so hyperparameters rejoin it), accumulate
// forward/backward passes, mask and clip both gradient populations,
// apply decoupled weight decay, then step the meta-optimizer and the
// base optimizer. Evaluation, checkpoints and logging happen only on
// the leader rank.
type Trainer struct {
	cfg     Config
	model   *nn.GPT
	wrapper *hypergrad.Wrapper
	source  *data.Source
	sched   Schedule
	eval    *Evaluator
	ckpt    *CheckpointManager
	log     *slog.Logger

	iter        int
	bestValLoss float64
	initial     map[string]float32 // hyperparameter values at loop entry
}

// New assembles a trainer from a validated configuration.
func New(cfg Config, model *nn.GPT, w *hypergrad.Wrapper, source *data.Source, log *slog.Logger) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ckpt, err := NewCheckpointManager(cfg.OutDir)
	if err != nil {
		return nil, err
	}
	return &Trainer{
		cfg:         cfg,
		model:       model,
		wrapper:     w,
		source:      source,
		sched:       NewSchedule(cfg),
		eval:        NewEvaluator(w, source, cfg),
		ckpt:        ckpt,
		log:         log,
		bestValLoss: math.Inf(1),
	}, nil
}

// Iter returns the current iteration counter.
func (t *Trainer) Iter() int { return t.iter }

// BestValLoss returns the best validation loss observed so far.
func (t *Trainer) BestValLoss() float64 { return t.bestValLoss }

// Run executes the loop until the iteration budget is exhausted or a
// non-finite evaluation loss forces graceful termination.
func (t *Trainer) Run() error {
	cfg := t.cfg

	if cfg.Resume && t.ckpt.Exists() {
		iter, best, err := t.ckpt.Load(t.model, t.wrapper)
		if err != nil {
			return err
		}
		t.iter, t.bestValLoss = iter, best
		t.log.Info("resumed from checkpoint", "path", t.ckpt.Path(), "iter", iter, "best_val_loss", best)
	}

	t.initial = t.wrapper.Hyperparams().Snapshot()
	t.log.Info("starting run",
		"mode", t.wrapper.Mode().String(),
		"params", t.model.NumParams(),
		"tokens_per_iter", cfg.TokensPerIter(),
		"rank", cfg.Rank, "world_size", cfg.WorldSize)

	inputs, targets, err := t.source.Batch(data.TrainSplit, cfg.BatchSize, cfg.BlockSize)
	if err != nil {
		return err
	}

	localAccum := cfg.LocalAccumSteps()
	localIter := 0
	var throughput float64

	for {
		lr := t.sched.Rate(t.iter)
		t.wrapper.SetLearningRate(float32(lr))

		if t.iter%cfg.EvalInterval == 0 && cfg.IsLeader() {
			done, err := t.evalAndCheckpoint()
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
		if cfg.EvalOnly && t.iter == 0 {
			return nil
		}

		start := time.Now()
		t.wrapper.Begin()
		t.wrapper.ZeroGrad()

		var lastLoss float32
		for micro := 0; micro < localAccum; micro++ {
			_, loss := t.wrapper.Forward(inputs, targets, cfg.BatchSize, cfg.BlockSize)
			scaled := t.wrapper.Engine().Scale(loss, 1/float32(localAccum), 0)
			t.wrapper.Backward(scaled)
			lastLoss = loss.Item()

			// next batch, fetched while gradients are still being consumed
			inputs, targets, err = t.source.Batch(data.TrainSplit, cfg.BatchSize, cfg.BlockSize)
			if err != nil {
				return err
			}
		}

		t.wrapper.MaskGrads()
		gradNorm := t.wrapper.ClipGrads(cfg.GradClip)
		t.wrapper.ClipHyperGrads(cfg.HyperGradClip)

		t.applyWeightDecay()
		t.wrapper.Step()
		t.wrapper.ZeroGrad()

		dt := time.Since(start)
		if t.iter%cfg.LogInterval == 0 && cfg.IsLeader() {
			// skip the first few local iterations while caches warm up
			if localIter >= 5 {
				inst := t.model.EstimateThroughput(cfg.BatchSize*cfg.BlockSize*localAccum, dt)
				if throughput == 0 {
					throughput = inst
				} else {
					throughput = 0.9*throughput + 0.1*inst
				}
			}
			attrs := []any{
				"iter", t.iter,
				"loss", fmt.Sprintf("%.4f", lastLoss),
				"lr", fmt.Sprintf("%.3g", lr),
				"grad_norm", fmt.Sprintf("%.3f", gradNorm),
				"dt_ms", dt.Milliseconds(),
				"tok_per_sec", fmt.Sprintf("%.0f", throughput),
			}
			hp := t.wrapper.Hyperparams()
			for _, name := range hp.Names() {
				attrs = append(attrs, name, fmt.Sprintf("%.5f", hp.Get(name).Clamped()))
			}
			t.log.Info("train", attrs...)
		}

		t.iter++
		localIter++
		if t.iter > cfg.MaxIters {
			break
		}
	}

	return t.finish("budget exhausted")
}

// evalAndCheckpoint runs the leader's periodic block: loss estimation on
// both splits, checkpointing on improvement, and non-finite detection.
// It returns done=true when the run must terminate gracefully.
func (t *Trainer) evalAndCheckpoint() (done bool, err error) {
	trainLoss, err := t.eval.Estimate(data.TrainSplit)
	if err != nil {
		return false, err
	}
	valLoss, err := t.eval.Estimate(data.ValSplit)
	if err != nil {
		return false, err
	}
	t.log.Info("eval", "iter", t.iter,
		"train_loss", fmt.Sprintf("%.4f", trainLoss),
		"val_loss", fmt.Sprintf("%.4f", valLoss))

	if math.IsNaN(trainLoss) || math.IsInf(trainLoss, 0) {
		t.log.Error("non-finite training loss, terminating", "iter", t.iter, "train_loss", trainLoss)
		return true, t.finish("non-finite loss")
	}

	if valLoss < t.bestValLoss || t.cfg.AlwaysSaveCkpt {
		t.bestValLoss = math.Min(valLoss, t.bestValLoss)
		if t.iter > 0 {
			if err := t.ckpt.Save(t.model, t.wrapper, t.iter, t.bestValLoss); err != nil {
				return false, err
			}
			t.log.Info("saved checkpoint", "path", t.ckpt.Path(), "iter", t.iter)
		}
	}
	return false, nil
}

// finish runs one last evaluation and appends the summary row: the
// hyperparameter values the run started from plus the final losses.
func (t *Trainer) finish(reason string) error {
	if !t.cfg.IsLeader() {
		return nil
	}
	trainLoss, err := t.eval.Estimate(data.TrainSplit)
	if err != nil {
		return err
	}
	valLoss, err := t.eval.Estimate(data.ValSplit)
	if err != nil {
		return err
	}
	t.log.Info("run finished", "reason", reason, "iter", t.iter,
		"final_train_loss", fmt.Sprintf("%.4f", trainLoss),
		"final_val_loss", fmt.Sprintf("%.4f", valLoss))
	return AppendSummary(t.cfg.OutDir, t.wrapper.Mode().String(), t.cfg.Rank,
		t.wrapper.Hyperparams().Names(), t.initial, trainLoss, valLoss)
}

// applyWeightDecay shrinks every rank>=2 parameter in place by the
// decoupled decay term, using the live learning-rate value so decay
// strength tracks the schedule.
func (t *Trainer) applyWeightDecay() {
	if t.cfg.WeightDecay == 0 {
		return
	}
	alpha := t.wrapper.Hyperparams().Get(hypergrad.Alpha).Value()
	factor := 1 - alpha*float32(t.cfg.WeightDecay)
	for _, p := range t.model.DecayParameters() {
		buf := p.Tensor().Data()
		for i := range buf {
			buf[i] *= factor
		}
	}
}
