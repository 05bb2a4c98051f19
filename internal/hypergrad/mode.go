package hypergrad

import "fmt"

// AblationMode selects which hyperparameters are allowed to learn.
type AblationMode int

const (
	// ModeFull trains all five optimizer hyperparameters.
	ModeFull AblationMode = iota
	// ModeAdam freezes every hyperparameter; the run is a plain Adam baseline.
	ModeAdam
	// ModeHyperAdam trains only beta1 and beta2.
	ModeHyperAdam
)

// ParseMode converts a mode name to an AblationMode.
func ParseMode(s string) (AblationMode, error) {
	switch s {
	case "mada":
		return ModeFull, nil
	case "adam":
		return ModeAdam, nil
	case "hyperadam":
		return ModeHyperAdam, nil
	}
	return 0, fmt.Errorf("hypergrad: unknown ablation mode %q", s)
}

// String returns the mode name used in log lines and result files.
func (m AblationMode) String() string {
	switch m {
	case ModeFull:
		return "mada"
	case ModeAdam:
		return "adam"
	case ModeHyperAdam:
		return "hyperadam"
	}
	return fmt.Sprintf("AblationMode(%d)", int(m))
}

// learns reports whether the mode lets the named hyperparameter train.
// Alpha never learns: the schedule owns it in every mode.
func (m AblationMode) learns(name string) bool {
	if name == Alpha {
		return false
	}
	switch m {
	case ModeAdam:
		return false
	case ModeHyperAdam:
		return name == Beta1 || name == Beta2
	}
	return true
}

// ApplyMask zeroes the gradients of every hyperparameter the mode freezes.
// Frozen gradients become explicit zero tensors, not nil, so the
// meta-optimizer's momentum buffers keep decaying uniformly.
func (m AblationMode) ApplyMask(s *Set) {
	for _, h := range s.All() {
		if !m.learns(h.Name()) {
			h.ZeroGrad()
		}
	}
}
