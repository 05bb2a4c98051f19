package serialization

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

func sampleTensors(t *testing.T) map[string]*tensor.RawTensor {
	t.Helper()
	a, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float32{-0.5, 0.25}, tensor.Shape{2})
	require.NoError(t, err)
	return map[string]*tensor.RawTensor{"wte.weight": a, "ln_f.bias": b}
}

func sampleHeader() Header {
	return Header{
		Arch: ArchMeta{NLayer: 2, NHead: 2, NEmbd: 8, BlockSize: 16, VocabSize: 64},
		Train: TrainMeta{
			Iter:        7,
			BestValLoss: 3.25,
			Mode:        "mada",
			Hyperparams: map[string]float32{"beta1": 0.9},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTensors(t), sampleHeader()))

	header, tensors, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, 7, header.Train.Iter)
	assert.Equal(t, 3.25, header.Train.BestValLoss)
	assert.Equal(t, "mada", header.Train.Mode)
	assert.InDelta(t, 0.9, header.Train.Hyperparams["beta1"], 1e-7)

	want := sampleTensors(t)
	require.Len(t, tensors, len(want))
	for name, raw := range want {
		got, ok := tensors[name]
		require.True(t, ok, "missing %s", name)
		assert.True(t, raw.Shape().Equal(got.Shape()))
		assert.Equal(t, raw.Data(), got.Data())
	}
}

func TestWriteIsDeterministic(t *testing.T) {
	header := sampleHeader()
	header.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var first, second bytes.Buffer
	require.NoError(t, Write(&first, sampleTensors(t), header))
	require.NoError(t, Write(&second, sampleTensors(t), header))
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestReadRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTensors(t), sampleHeader()))
	raw := buf.Bytes()
	raw[0] = 'X'
	_, _, err := Read(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestReadDetectsCorruptedData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTensors(t), sampleHeader()))
	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xFF // flip a bit in the tensor blob
	_, _, err := Read(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestReadDetectsTruncation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleTensors(t), sampleHeader()))
	raw := buf.Bytes()
	_, _, err := Read(bytes.NewReader(raw[:len(raw)-4]))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestWriteFileIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ckpt.mada")
	require.NoError(t, WriteFile(path, sampleTensors(t), sampleHeader()))

	// no stray temp files after a successful write
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ckpt.mada", entries[0].Name())

	_, _, err = ReadFile(path)
	assert.NoError(t, err)
}

func TestStripKeyPrefix(t *testing.T) {
	dict := map[string]*tensor.RawTensor{
		"_orig_mod.wte.weight": tensor.Scalar(1),
		"ln_f.bias":            tensor.Scalar(2),
	}
	out := StripKeyPrefix(dict, "_orig_mod.")
	assert.Contains(t, out, "wte.weight")
	assert.Contains(t, out, "ln_f.bias")
	assert.NotContains(t, out, "_orig_mod.wte.weight")
}

func TestArchMetaMatchesIgnoresDropout(t *testing.T) {
	a := ArchMeta{NLayer: 2, NHead: 2, NEmbd: 8, BlockSize: 16, VocabSize: 64, Dropout: 0.1}
	b := a
	b.Dropout = 0.0
	assert.True(t, a.Matches(b))
	b.NEmbd = 16
	assert.False(t, a.Matches(b))
}
