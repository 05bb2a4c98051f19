package train

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Shyamsaitejamandibi/mada/internal/autodiff"
	"github.com/Shyamsaitejamandibi/mada/internal/data"
	"github.com/Shyamsaitejamandibi/mada/internal/hypergrad"
	"github.com/Shyamsaitejamandibi/mada/internal/nn"
)

const testVocab = 64

// writeDataset writes a tiny deterministic corpus: token i carries value
// i mod vocab, so every target equals (input+1) mod vocab.
func writeDataset(t *testing.T, dir string, n int) {
	t.Helper()
	for _, name := range []string{"train.bin", "val.bin"} {
		buf := make([]byte, 2*n)
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(i%testVocab))
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meta.json"),
		[]byte(`{"vocab_size": 64}`), 0o644))
}

func tinyModelConfig() nn.Config {
	return nn.Config{
		NLayer:    1,
		NHead:     2,
		NEmbd:     8,
		BlockSize: 8,
		Bias:      false,
		VocabSize: testVocab,
	}
}

func newTinyWrapper(t *testing.T, mode hypergrad.AblationMode) (*nn.GPT, *hypergrad.Wrapper) {
	t.Helper()
	model, err := nn.NewGPT(tinyModelConfig(), 7)
	require.NoError(t, err)
	hp := hypergrad.NewSet(hypergrad.Values{
		Beta1: 0.9, Beta2: 0.99, Beta3: 0, Rho: 1, Gamma: 1, Alpha: 1e-3,
	})
	w := hypergrad.NewWrapper(model, autodiff.New(),
		hypergrad.NewMada(hp),
		hypergrad.NewMetaSGD(hypergrad.DefaultMetaRules()),
		mode)
	return model, w
}

func tinyRunConfig(t *testing.T) Config {
	t.Helper()
	dataDir := t.TempDir()
	writeDataset(t, dataDir, 512)

	cfg := DefaultConfig()
	cfg.OutDir = t.TempDir()
	cfg.DataDir = dataDir
	cfg.BatchSize = 2
	cfg.BlockSize = 8
	cfg.AccumSteps = 1
	cfg.NLayer = 1
	cfg.NHead = 2
	cfg.NEmbd = 8
	cfg.MaxIters = 2
	cfg.EvalInterval = 1
	cfg.EvalIters = 1
	cfg.LogInterval = 1
	cfg.AlwaysSaveCkpt = true
	cfg.WarmupIters = 1
	cfg.LRDecayIters = 4
	cfg.LearningRate = 1e-3
	cfg.MinLR = 1e-4
	return cfg
}

func openSource(t *testing.T, cfg Config) *data.Source {
	t.Helper()
	source, err := data.Open(cfg.DataDir, cfg.Seed)
	require.NoError(t, err)
	return source
}
