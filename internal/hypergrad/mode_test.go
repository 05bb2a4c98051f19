package hypergrad

import (
	"testing"

	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

func setAllGrads(s *Set, v float32) {
	for _, h := range s.All() {
		h.SetGrad(tensor.Scalar(v))
	}
}

func TestParseMode(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want AblationMode
	}{
		{"mada", ModeFull},
		{"adam", ModeAdam},
		{"hyperadam", ModeHyperAdam},
	} {
		got, err := ParseMode(tc.in)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tc.in, got, tc.want)
		}
		if got.String() != tc.in {
			t.Errorf("%v.String() = %q, want %q", got, got.String(), tc.in)
		}
	}
	if _, err := ParseMode("sgd"); err == nil {
		t.Error("ParseMode accepted unknown mode")
	}
}

func TestMaskAlphaAlwaysZeroed(t *testing.T) {
	for _, mode := range []AblationMode{ModeFull, ModeAdam, ModeHyperAdam} {
		s := NewSet(Values{Beta1: 0.9, Beta2: 0.99, Rho: 1, Gamma: 1})
		setAllGrads(s, 0.3)
		mode.ApplyMask(s)
		if g := s.Get(Alpha).Grad(); g == nil || g.Item() != 0 {
			t.Errorf("%v: alpha gradient not zeroed", mode)
		}
	}
}

func TestMaskAdamZeroesEverything(t *testing.T) {
	s := NewSet(Values{Beta1: 0.9, Beta2: 0.99, Rho: 1, Gamma: 1})
	setAllGrads(s, 0.3)
	ModeAdam.ApplyMask(s)
	for _, h := range s.All() {
		if h.Grad() == nil {
			t.Fatalf("%s: gradient became nil; mask must leave explicit zeros", h.Name())
		}
		if h.Grad().Item() != 0 {
			t.Errorf("%s: gradient %v survived adam mask", h.Name(), h.Grad().Item())
		}
	}
}

func TestMaskHyperAdamKeepsOnlyMomentDecays(t *testing.T) {
	s := NewSet(Values{Beta1: 0.9, Beta2: 0.99, Rho: 1, Gamma: 1})
	setAllGrads(s, 0.3)
	ModeHyperAdam.ApplyMask(s)
	for _, h := range s.All() {
		g := h.Grad().Item()
		learns := h.Name() == Beta1 || h.Name() == Beta2
		if learns && g != 0.3 {
			t.Errorf("%s: gradient %v clobbered by hyperadam mask", h.Name(), g)
		}
		if !learns && g != 0 {
			t.Errorf("%s: gradient %v survived hyperadam mask", h.Name(), g)
		}
	}
}

func TestMaskFullKeepsAllButAlpha(t *testing.T) {
	s := NewSet(Values{Beta1: 0.9, Beta2: 0.99, Rho: 1, Gamma: 1})
	setAllGrads(s, 0.3)
	ModeFull.ApplyMask(s)
	for _, h := range s.All() {
		g := h.Grad().Item()
		if h.Name() == Alpha {
			if g != 0 {
				t.Errorf("alpha gradient %v survived full-mode mask", g)
			}
			continue
		}
		if g != 0.3 {
			t.Errorf("%s: gradient %v clobbered by full-mode mask", h.Name(), g)
		}
	}
}
