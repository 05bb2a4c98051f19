package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shyamsaitejamandibi/mada/internal/hypergrad"
)

func TestBothAblationFlagsFailFast(t *testing.T) {
	t.Setenv("RANK", "")
	t.Setenv("WORLD_SIZE", "")
	_, err := parseTrainFlags([]string{"-adam", "-hyperadam"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestAblationFlagSelectsMode(t *testing.T) {
	t.Setenv("RANK", "")
	t.Setenv("WORLD_SIZE", "")

	for _, tc := range []struct {
		args []string
		want hypergrad.AblationMode
	}{
		{nil, hypergrad.ModeFull},
		{[]string{"-adam"}, hypergrad.ModeAdam},
		{[]string{"-hyperadam"}, hypergrad.ModeHyperAdam},
	} {
		cfg, err := parseTrainFlags(tc.args)
		require.NoError(t, err, "args %v", tc.args)
		assert.Equal(t, tc.want, cfg.Mode, "args %v", tc.args)
	}
}

func TestTrainFlagsOverrideDefaults(t *testing.T) {
	t.Setenv("RANK", "")
	t.Setenv("WORLD_SIZE", "")

	cfg, err := parseTrainFlags([]string{
		"-batch-size", "4",
		"-block-size", "64",
		"-out-dir", "runs/exp1",
		"-grad-clip", "0.5",
		"-hyper-grad-clip", "5",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, 64, cfg.BlockSize)
	assert.Equal(t, "runs/exp1", cfg.OutDir)
	assert.Equal(t, 0.5, cfg.GradClip)
	assert.Equal(t, 5.0, cfg.HyperGradClip)
}

func TestTrainFlagsReadRankFromEnv(t *testing.T) {
	t.Setenv("RANK", "1")
	t.Setenv("WORLD_SIZE", "2")
	cfg, err := parseTrainFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Rank)
	assert.Equal(t, 2, cfg.WorldSize)
}
