// Command mada trains a GPT language model with a differentiable
// optimizer whose hyperparameters learn by hypergradient descent.
//
// Subcommands:
//
//	mada train   -- run the training loop (default)
//	mada prepare -- tokenize a text corpus into train/val shards
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Shyamsaitejamandibi/mada/internal/autodiff"
	"github.com/Shyamsaitejamandibi/mada/internal/data"
	"github.com/Shyamsaitejamandibi/mada/internal/hypergrad"
	"github.com/Shyamsaitejamandibi/mada/internal/nn"
	"github.com/Shyamsaitejamandibi/mada/internal/train"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	args := os.Args[1:]
	cmd := "train"
	if len(args) > 0 && (args[0] == "train" || args[0] == "prepare") {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "prepare":
		err = runPrepare(args)
	default:
		err = runTrain(args, log)
	}
	if err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func runPrepare(args []string) error {
	fs := flag.NewFlagSet("prepare", flag.ExitOnError)
	input := fs.String("input", "input.txt", "plain-text corpus to tokenize")
	outDir := fs.String("out", "data/corpus", "output directory for train.bin/val.bin/meta.json")
	valFraction := fs.Float64("val-fraction", 0.1, "fraction of tokens held out for validation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return data.Prepare(*input, *outDir, *valFraction)
}

func runTrain(args []string, log *slog.Logger) error {
	cfg, err := parseTrainFlags(args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	source, err := data.Open(cfg.DataDir, cfg.Seed+int64(cfg.Rank))
	if err != nil {
		return err
	}

	model, err := nn.NewGPT(nn.Config{
		NLayer:    cfg.NLayer,
		NHead:     cfg.NHead,
		NEmbd:     cfg.NEmbd,
		BlockSize: cfg.BlockSize,
		Bias:      cfg.Bias,
		VocabSize: source.VocabSize(),
		Dropout:   cfg.Dropout,
	}, cfg.Seed+int64(cfg.Rank))
	if err != nil {
		return err
	}

	engine := autodiff.New()
	hp := hypergrad.NewSet(hypergrad.Values{
		Beta1: float32(cfg.Beta1),
		Beta2: float32(cfg.Beta2),
		Beta3: 0,
		Rho:   1,
		Gamma: 1,
		Alpha: float32(cfg.LearningRate),
	})
	wrapper := hypergrad.NewWrapper(model, engine,
		hypergrad.NewMada(hp),
		hypergrad.NewMetaSGD(hypergrad.DefaultMetaRules()),
		cfg.Mode)

	trainer, err := train.New(cfg, model, wrapper, source, log)
	if err != nil {
		return err
	}
	return trainer.Run()
}

func parseTrainFlags(args []string) (train.Config, error) {
	cfg := train.DefaultConfig()
	fs := flag.NewFlagSet("train", flag.ExitOnError)

	fs.StringVar(&cfg.OutDir, "out-dir", cfg.OutDir, "run directory for checkpoints and results")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "dataset directory with train.bin/val.bin")
	fs.IntVar(&cfg.EvalInterval, "eval-interval", cfg.EvalInterval, "iterations between evaluations")
	fs.IntVar(&cfg.LogInterval, "log-interval", cfg.LogInterval, "iterations between log lines")
	fs.IntVar(&cfg.EvalIters, "eval-iters", cfg.EvalIters, "batches per loss estimate")
	fs.BoolVar(&cfg.EvalOnly, "eval-only", cfg.EvalOnly, "exit after the first evaluation")
	fs.BoolVar(&cfg.AlwaysSaveCkpt, "always-save-checkpoint", cfg.AlwaysSaveCkpt, "checkpoint at every evaluation, improved or not")
	fs.BoolVar(&cfg.Resume, "resume", cfg.Resume, "resume from the run directory's checkpoint")

	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "sequences per micro-batch")
	fs.IntVar(&cfg.BlockSize, "block-size", cfg.BlockSize, "sequence length")
	fs.IntVar(&cfg.AccumSteps, "grad-accum", cfg.AccumSteps, "gradient accumulation steps across all ranks")

	fs.IntVar(&cfg.NLayer, "n-layer", cfg.NLayer, "transformer layers")
	fs.IntVar(&cfg.NHead, "n-head", cfg.NHead, "attention heads")
	fs.IntVar(&cfg.NEmbd, "n-embd", cfg.NEmbd, "embedding width")
	fs.Float64Var(&cfg.Dropout, "dropout", cfg.Dropout, "dropout probability (recorded; training runs at 0)")
	fs.BoolVar(&cfg.Bias, "bias", cfg.Bias, "use bias terms in linear layers")

	fs.Float64Var(&cfg.LearningRate, "learning-rate", cfg.LearningRate, "base learning rate")
	fs.IntVar(&cfg.MaxIters, "max-iters", cfg.MaxIters, "iteration budget")
	fs.Float64Var(&cfg.WeightDecay, "weight-decay", cfg.WeightDecay, "decoupled weight decay")
	fs.Float64Var(&cfg.Beta1, "beta1", cfg.Beta1, "initial momentum decay")
	fs.Float64Var(&cfg.Beta2, "beta2", cfg.Beta2, "initial second-moment decay")
	fs.Float64Var(&cfg.GradClip, "grad-clip", cfg.GradClip, "model gradient global-norm threshold (0 disables)")
	fs.Float64Var(&cfg.HyperGradClip, "hyper-grad-clip", cfg.HyperGradClip, "per-hyperparameter gradient threshold (0 disables)")

	fs.BoolVar(&cfg.DecayLR, "decay-lr", cfg.DecayLR, "enable warmup+cosine schedule")
	fs.IntVar(&cfg.WarmupIters, "warmup-iters", cfg.WarmupIters, "linear warmup iterations")
	fs.IntVar(&cfg.LRDecayIters, "lr-decay-iters", cfg.LRDecayIters, "cosine decay horizon")
	fs.Float64Var(&cfg.MinLR, "min-lr", cfg.MinLR, "floor learning rate")

	adam := fs.Bool("adam", false, "freeze all hyperparameters (Adam baseline)")
	hyperAdam := fs.Bool("hyperadam", false, "learn only beta1/beta2")

	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "base RNG seed (offset by rank)")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	switch {
	case *adam && *hyperAdam:
		return cfg, fmt.Errorf("ablation modes -adam and -hyperadam are mutually exclusive")
	case *adam:
		cfg.Mode = hypergrad.ModeAdam
	case *hyperAdam:
		cfg.Mode = hypergrad.ModeHyperAdam
	default:
		cfg.Mode = hypergrad.ModeFull
	}

	return cfg.FromEnv()
}
