package hypergrad

// MetaRule is the SGD-with-momentum setting for one hyperparameter.
type MetaRule struct {
	LR       float32
	Momentum float32
}

// DefaultMetaRules returns the per-hyperparameter meta-learning rules.
// The decay and shape hyperparameters use a small momentum-smoothed rate;
// gamma learns without momentum, and alpha is pinned (the schedule drives
// it, so its rule is a no-op even before masking).
func DefaultMetaRules() map[string]MetaRule {
	return map[string]MetaRule{
		Beta1: {LR: 2.5e-3, Momentum: 0.5},
		Beta2: {LR: 2.5e-3, Momentum: 0.5},
		Beta3: {LR: 2.5e-3, Momentum: 0.5},
		Rho:   {LR: 2.5e-3, Momentum: 0.5},
		Gamma: {LR: 2.5e-3, Momentum: 0},
		Alpha: {LR: 0, Momentum: 0},
	}
}

// MetaSGD advances the hyperparameters by SGD with momentum, one
// independently configured rule per name.
type MetaSGD struct {
	rules map[string]MetaRule
	buf   map[string]float32 // momentum buffers by hyperparameter name
}

// NewMetaSGD creates a meta-optimizer from per-name rules. Hyperparameters
// without a rule are left untouched.
func NewMetaSGD(rules map[string]MetaRule) *MetaSGD {
	return &MetaSGD{rules: rules, buf: make(map[string]float32)}
}

// Step applies one meta-update to every hyperparameter with a rule and a
// gradient. Masked (zero) gradients still decay the momentum buffer.
func (m *MetaSGD) Step(s *Set) {
	for _, h := range s.All() {
		rule, ok := m.rules[h.Name()]
		if !ok || h.Grad() == nil {
			continue
		}
		b := m.buf[h.Name()]*rule.Momentum + h.Grad().Item()
		m.buf[h.Name()] = b
		h.SetValue(h.Value() - rule.LR*b)
	}
}

// Buffers returns the momentum buffers by name, for checkpointing.
func (m *MetaSGD) Buffers() map[string]float32 {
	out := make(map[string]float32, len(m.buf))
	for name, v := range m.buf {
		out[name] = v
	}
	return out
}

// SetBuffers restores momentum buffers from a checkpoint.
func (m *MetaSGD) SetBuffers(buf map[string]float32) {
	m.buf = make(map[string]float32, len(buf))
	for name, v := range buf {
		m.buf[name] = v
	}
}
