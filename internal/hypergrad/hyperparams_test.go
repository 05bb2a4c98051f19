package hypergrad

import "testing"

func TestClampedIsIdempotentAndNonMutating(t *testing.T) {
	s := NewSet(Values{Beta1: 1.7, Beta2: 0.3, Beta3: -0.2, Rho: 1, Gamma: 1, Alpha: 0.5})

	cases := []struct {
		name string
		want float32
	}{
		{Beta1, 0.999}, // above upper bound
		{Beta2, 0.5},   // below stricter lower bound
		{Beta3, 0},     // below zero
		{Alpha, 0.5},   // in range, untouched
	}
	for _, tc := range cases {
		h := s.Get(tc.name)
		before := h.Value()
		first := h.Clamped()
		second := h.Clamped()
		if first != tc.want {
			t.Errorf("%s: Clamped() = %v, want %v", tc.name, first, tc.want)
		}
		if second != first {
			t.Errorf("%s: clamp not idempotent: %v then %v", tc.name, first, second)
		}
		if h.Value() != before {
			t.Errorf("%s: Clamped mutated trainable value: %v -> %v", tc.name, before, h.Value())
		}
	}
}

func TestSnapshotCoversAllNamesInOrder(t *testing.T) {
	s := NewSet(Values{Beta1: 0.9, Beta2: 0.99, Rho: 1, Gamma: 1})
	snap := s.Snapshot()
	if len(snap) != 6 {
		t.Fatalf("snapshot has %d entries, want 6", len(snap))
	}
	wantOrder := []string{Beta1, Beta2, Beta3, Rho, Gamma, Alpha}
	names := s.Names()
	for i, want := range wantOrder {
		if names[i] != want {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want)
		}
	}
}

func TestSetValuePreservesTensorIdentity(t *testing.T) {
	s := NewSet(Values{Alpha: 0.1})
	h := s.Get(Alpha)
	before := h.ValueTensor()
	h.SetValue(0.05)
	if h.ValueTensor() != before {
		t.Fatal("SetValue replaced the value tensor; graph identity must be stable")
	}
	if h.Value() != 0.05 {
		t.Fatalf("Value() = %v after SetValue(0.05)", h.Value())
	}
}
