package train

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Shyamsaitejamandibi/mada/internal/hypergrad"
	"github.com/Shyamsaitejamandibi/mada/internal/nn"
	"github.com/Shyamsaitejamandibi/mada/internal/serialization"
	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// CheckpointName is the single checkpoint file per run directory; each
// save supersedes the previous one.
const CheckpointName = "ckpt.mada"

// compiledPrefix is the parameter-key artifact left by graph-compiling
// wrappers in externally produced checkpoints. Stripped on load as a
// one-time migration, never written.
const compiledPrefix = "_orig_mod."

const (
	modelKeyPrefix = "model."
	optKeyPrefix   = "opt."
)

// CheckpointManager saves and restores full training state: model
// weights, optimizer moments, hyperparameter snapshot and run counters.
type CheckpointManager struct {
	path string
}

// NewCheckpointManager creates the run directory if needed.
func NewCheckpointManager(outDir string) (*CheckpointManager, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("train: create out dir: %w", err)
	}
	return &CheckpointManager{path: filepath.Join(outDir, CheckpointName)}, nil
}

// Path returns the checkpoint file path.
func (cm *CheckpointManager) Path() string { return cm.path }

// Exists reports whether a checkpoint is present.
func (cm *CheckpointManager) Exists() bool {
	_, err := os.Stat(cm.path)
	return err == nil
}

// Save writes the checkpoint atomically. Hyperparameter values are
// persisted clamped; the live trainable tensors are untouched.
func (cm *CheckpointManager) Save(model *nn.GPT, w *hypergrad.Wrapper, iter int, bestValLoss float64) error {
	tensors := make(map[string]*tensor.RawTensor)
	for name, raw := range model.StateDict() {
		tensors[modelKeyPrefix+name] = raw
	}
	for name, raw := range w.Optimizer().StateDict(model.Parameters()) {
		tensors[optKeyPrefix+name] = raw
	}

	mc := model.Config()
	header := serialization.Header{
		Arch: serialization.ArchMeta{
			NLayer:    mc.NLayer,
			NHead:     mc.NHead,
			NEmbd:     mc.NEmbd,
			BlockSize: mc.BlockSize,
			Bias:      mc.Bias,
			VocabSize: mc.VocabSize,
			Dropout:   mc.Dropout,
		},
		Train: serialization.TrainMeta{
			Iter:          iter,
			BestValLoss:   bestValLoss,
			Mode:          w.Mode().String(),
			OptimizerStep: w.Optimizer().StepCount(),
			Hyperparams:   w.Hyperparams().Snapshot(),
			MetaBuffers:   w.Meta().Buffers(),
		},
	}
	if err := serialization.WriteFile(cm.path, tensors, header); err != nil {
		return fmt.Errorf("train: save checkpoint: %w", err)
	}
	return nil
}

// Load restores model weights, optimizer state, hyperparameter values
// and counters from the checkpoint. The stored architecture must match
// the model's exactly (dropout excepted); mismatch is fatal before any
// training step.
func (cm *CheckpointManager) Load(model *nn.GPT, w *hypergrad.Wrapper) (iter int, bestValLoss float64, err error) {
	header, tensors, err := serialization.ReadFile(cm.path)
	if err != nil {
		return 0, 0, err
	}

	mc := model.Config()
	want := serialization.ArchMeta{
		NLayer:    mc.NLayer,
		NHead:     mc.NHead,
		NEmbd:     mc.NEmbd,
		BlockSize: mc.BlockSize,
		Bias:      mc.Bias,
		VocabSize: mc.VocabSize,
	}
	if !header.Arch.Matches(want) {
		return 0, 0, fmt.Errorf("train: checkpoint architecture %+v does not match requested %+v", header.Arch, want)
	}

	modelDict := make(map[string]*tensor.RawTensor)
	optDict := make(map[string]*tensor.RawTensor)
	for name, raw := range tensors {
		switch {
		case strings.HasPrefix(name, modelKeyPrefix):
			modelDict[strings.TrimPrefix(name, modelKeyPrefix)] = raw
		case strings.HasPrefix(name, optKeyPrefix):
			optDict[strings.TrimPrefix(name, optKeyPrefix)] = raw
		}
	}
	modelDict = serialization.StripKeyPrefix(modelDict, compiledPrefix)

	if err := model.LoadStateDict(modelDict); err != nil {
		return 0, 0, fmt.Errorf("train: restore model: %w", err)
	}
	if err := w.Optimizer().LoadStateDict(model.Parameters(), optDict, header.Train.OptimizerStep); err != nil {
		return 0, 0, fmt.Errorf("train: restore optimizer: %w", err)
	}
	for name, v := range header.Train.Hyperparams {
		w.Hyperparams().Get(name).SetValue(v)
	}
	w.Meta().SetBuffers(header.Train.MetaBuffers)
	return header.Train.Iter, header.Train.BestValLoss, nil
}
