package train

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shyamsaitejamandibi/mada/internal/hypergrad"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTrainerSmokeRun(t *testing.T) {
	cfg := tinyRunConfig(t)
	model, wrapper := newTinyWrapper(t, hypergrad.ModeFull)
	source := openSource(t, cfg)

	tr, err := New(cfg, model, wrapper, source, discardLogger())
	require.NoError(t, err)
	require.NoError(t, tr.Run())

	assert.Greater(t, tr.Iter(), cfg.MaxIters, "loop must run out the budget")
	assert.FileExists(t, filepath.Join(cfg.OutDir, CheckpointName))

	summary := filepath.Join(cfg.OutDir, "results",
		fmt.Sprintf("train_log_%s%d.txt", wrapper.Mode().String(), cfg.Rank))
	raw, err := os.ReadFile(summary)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "train_loss=")
	assert.Contains(t, string(raw), "beta1=")
}

func TestTrainerEvalOnlyStopsAfterFirstEval(t *testing.T) {
	cfg := tinyRunConfig(t)
	cfg.EvalOnly = true
	cfg.AlwaysSaveCkpt = false
	model, wrapper := newTinyWrapper(t, hypergrad.ModeFull)

	tr, err := New(cfg, model, wrapper, openSource(t, cfg), discardLogger())
	require.NoError(t, err)
	require.NoError(t, tr.Run())
	assert.Equal(t, 0, tr.Iter())
}

func TestTrainerNonLeaderWritesNothing(t *testing.T) {
	cfg := tinyRunConfig(t)
	cfg.Rank = 1
	cfg.WorldSize = 2
	cfg.AccumSteps = 2 // divisible by world size
	model, wrapper := newTinyWrapper(t, hypergrad.ModeFull)

	tr, err := New(cfg, model, wrapper, openSource(t, cfg), discardLogger())
	require.NoError(t, err)
	require.NoError(t, tr.Run())

	assert.NoFileExists(t, filepath.Join(cfg.OutDir, CheckpointName))
	assert.NoDirExists(t, filepath.Join(cfg.OutDir, "results"))
}

func TestNonFiniteEvalLossTerminatesGracefully(t *testing.T) {
	cfg := tinyRunConfig(t)
	model, wrapper := newTinyWrapper(t, hypergrad.ModeFull)

	// poison the token embeddings so every forward pass yields a NaN loss
	for _, p := range model.Parameters() {
		if p.Name() == "wte.weight" {
			p.Tensor().Fill(float32(math.NaN()))
		}
	}

	tr, err := New(cfg, model, wrapper, openSource(t, cfg), discardLogger())
	require.NoError(t, err)
	require.NoError(t, tr.Run(), "a non-finite loss terminates the run, it is not an error")

	assert.Equal(t, 0, tr.Iter(), "no training step may follow the poisoned evaluation")
	assert.NoFileExists(t, filepath.Join(cfg.OutDir, CheckpointName),
		"a non-finite evaluation must never be checkpointed")

	summary := filepath.Join(cfg.OutDir, "results",
		fmt.Sprintf("train_log_%s%d.txt", wrapper.Mode().String(), cfg.Rank))
	raw, err := os.ReadFile(summary)
	require.NoError(t, err, "termination still writes the summary row")
	assert.Contains(t, string(raw), "train_loss=NaN")
	assert.Contains(t, string(raw), "beta1=")
}

func TestTrainerResumeRestoresCounters(t *testing.T) {
	cfg := tinyRunConfig(t)
	model, wrapper := newTinyWrapper(t, hypergrad.ModeFull)
	source := openSource(t, cfg)

	tr, err := New(cfg, model, wrapper, source, discardLogger())
	require.NoError(t, err)
	require.NoError(t, tr.Run())
	firstBest := tr.BestValLoss()

	cfg2 := cfg
	cfg2.Resume = true
	cfg2.MaxIters = 3
	model2, wrapper2 := newTinyWrapper(t, hypergrad.ModeFull)
	tr2, err := New(cfg2, model2, wrapper2, openSource(t, cfg2), discardLogger())
	require.NoError(t, err)
	require.NoError(t, tr2.Run())
	assert.LessOrEqual(t, tr2.BestValLoss(), firstBest)
}

func TestWeightDecayShrinksMatricesOnly(t *testing.T) {
	cfg := tinyRunConfig(t)
	cfg.WeightDecay = 0.1
	model, wrapper := newTinyWrapper(t, hypergrad.ModeFull)
	wrapper.SetLearningRate(0.5)

	tr, err := New(cfg, model, wrapper, openSource(t, cfg), discardLogger())
	require.NoError(t, err)

	var matrixBefore, vectorBefore []float32
	for _, p := range model.Parameters() {
		if p.Rank() >= 2 && matrixBefore == nil {
			matrixBefore = append(matrixBefore, p.Tensor().Data()...)
		}
		if p.Rank() == 1 && vectorBefore == nil {
			vectorBefore = append(vectorBefore, p.Tensor().Data()...)
		}
	}
	require.NotNil(t, matrixBefore)
	require.NotNil(t, vectorBefore)

	tr.applyWeightDecay()

	factor := float32(1 - 0.5*0.1)
	for _, p := range model.Parameters() {
		data := p.Tensor().Data()
		switch {
		case p.Rank() >= 2:
			for i := range matrixBefore {
				assert.InDelta(t, matrixBefore[i]*factor, data[i], 1e-7)
			}
			matrixBefore = nil
		case p.Rank() == 1:
			assert.Equal(t, vectorBefore, data, "rank-1 parameter %s must not decay", p.Name())
			vectorBefore = nil
		}
		if matrixBefore == nil && vectorBefore == nil {
			break
		}
	}
}

func TestWeightDecayZeroIsNoOp(t *testing.T) {
	cfg := tinyRunConfig(t)
	cfg.WeightDecay = 0
	model, wrapper := newTinyWrapper(t, hypergrad.ModeFull)
	wrapper.SetLearningRate(0.5)

	tr, err := New(cfg, model, wrapper, openSource(t, cfg), discardLogger())
	require.NoError(t, err)

	p := model.DecayParameters()[0]
	before := append([]float32(nil), p.Tensor().Data()...)
	tr.applyWeightDecay()
	assert.Equal(t, before, p.Tensor().Data())
}
