package train

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AppendSummary appends the run's closing row to the mode- and
// rank-specific results file under outDir: the initial hyperparameter
// values the run started from and the final train/val losses. The file
// accumulates across runs for side-by-side ablation comparison.
func AppendSummary(outDir, mode string, rank int, names []string, initial map[string]float32, trainLoss, valLoss float64) error {
	dir := filepath.Join(outDir, "results")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("train: create results dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("train_log_%s%d.txt", mode, rank))

	var row strings.Builder
	for _, name := range names {
		fmt.Fprintf(&row, "%s=%.6g ", name, initial[name])
	}
	fmt.Fprintf(&row, "train_loss=%.4f val_loss=%.4f\n", trainLoss, valLoss)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("train: open results file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(row.String()); err != nil {
		return fmt.Errorf("train: append summary: %w", err)
	}
	return nil
}
