// Package train runs the meta-optimization loop: schedule, orchestrator,
// evaluation, checkpointing and the per-run results summary.
package train

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Shyamsaitejamandibi/mada/internal/hypergrad"
)

// Config is the immutable run configuration. It is built once at startup
// (flags plus environment) and passed into every component; nothing
// reads ambient globals.
type Config struct {
	// I/O
	OutDir         string
	DataDir        string
	EvalInterval   int
	LogInterval    int
	EvalIters      int
	EvalOnly       bool
	AlwaysSaveCkpt bool
	Resume         bool

	// Batch geometry
	BatchSize  int
	BlockSize  int
	AccumSteps int // gradient accumulation micro-steps, global across ranks

	// Model
	NLayer  int
	NHead   int
	NEmbd   int
	Dropout float64
	Bias    bool

	// Optimizer
	LearningRate  float64
	MaxIters      int
	WeightDecay   float64
	Beta1         float64
	Beta2         float64
	GradClip      float64 // model-parameter global-norm threshold; <= 0 disables
	HyperGradClip float64 // per-hyperparameter threshold; <= 0 disables

	// Schedule
	DecayLR      bool
	WarmupIters  int
	LRDecayIters int
	MinLR        float64

	// Ablation
	Mode hypergrad.AblationMode

	// Multi-process replication. Bootstrap is external; each rank runs
	// the same loop over its own batch stream and hyper trajectory.
	Rank      int
	WorldSize int

	Seed int64
}

// DefaultConfig mirrors the canonical GPT-2-small training setup.
func DefaultConfig() Config {
	return Config{
		OutDir:        "out",
		DataDir:       "data/openwebtext",
		EvalInterval:  2000,
		LogInterval:   1,
		EvalIters:     200,
		BatchSize:     12,
		BlockSize:     1024,
		AccumSteps:    40,
		NLayer:        12,
		NHead:         12,
		NEmbd:         768,
		Dropout:       0.0,
		Bias:          false,
		LearningRate:  6e-4,
		MaxIters:      600000,
		WeightDecay:   0.1,
		Beta1:         0.9,
		Beta2:         0.99,
		GradClip:      1.0,
		HyperGradClip: 10.0,
		DecayLR:       true,
		WarmupIters:   2000,
		LRDecayIters:  600000,
		MinLR:         6e-5,
		Mode:          hypergrad.ModeFull,
		WorldSize:     1,
		Seed:          1337,
	}
}

// IsLeader reports whether this process performs evaluation, checkpoint
// writes and logging.
func (c Config) IsLeader() bool { return c.Rank == 0 }

// LocalAccumSteps returns this rank's share of the accumulation steps.
func (c Config) LocalAccumSteps() int { return c.AccumSteps / c.WorldSize }

// TokensPerIter returns the number of tokens consumed by one global
// iteration.
func (c Config) TokensPerIter() int {
	return c.AccumSteps * c.BatchSize * c.BlockSize
}

// Validate rejects malformed configurations before any batch is read.
func (c Config) Validate() error {
	switch {
	case c.BatchSize <= 0 || c.BlockSize <= 0:
		return fmt.Errorf("train: batch and block size must be positive")
	case c.MaxIters <= 0:
		return fmt.Errorf("train: max iters must be positive")
	case c.EvalInterval <= 0 || c.EvalIters <= 0 || c.LogInterval <= 0:
		return fmt.Errorf("train: eval/log cadence must be positive")
	case c.WorldSize <= 0 || c.Rank < 0 || c.Rank >= c.WorldSize:
		return fmt.Errorf("train: rank %d out of range for world size %d", c.Rank, c.WorldSize)
	case c.AccumSteps <= 0 || c.AccumSteps%c.WorldSize != 0:
		return fmt.Errorf("train: accumulation steps %d not divisible by world size %d", c.AccumSteps, c.WorldSize)
	case c.LearningRate <= 0:
		return fmt.Errorf("train: learning rate must be positive")
	}
	if c.DecayLR {
		switch {
		case c.WarmupIters < 0 || c.LRDecayIters <= 0:
			return fmt.Errorf("train: schedule bounds must be non-negative with positive decay horizon")
		case c.WarmupIters >= c.LRDecayIters:
			return fmt.Errorf("train: warmup %d must precede decay horizon %d", c.WarmupIters, c.LRDecayIters)
		case c.MinLR < 0 || c.MinLR > c.LearningRate:
			return fmt.Errorf("train: min rate %v outside [0, %v]", c.MinLR, c.LearningRate)
		}
	}
	return nil
}

// FromEnv fills Rank and WorldSize from the RANK / WORLD_SIZE variables
// set by the external launcher, leaving single-process defaults when
// unset.
func (c Config) FromEnv() (Config, error) {
	if v := os.Getenv("RANK"); v != "" {
		rank, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("train: parse RANK: %w", err)
		}
		c.Rank = rank
	}
	if v := os.Getenv("WORLD_SIZE"); v != "" {
		ws, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("train: parse WORLD_SIZE: %w", err)
		}
		c.WorldSize = ws
	}
	return c, nil
}
