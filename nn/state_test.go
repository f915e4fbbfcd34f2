package nn

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNewZeroState(t *testing.T) {
	st := NewZeroState(3, 4, 8)
	if len(st) != 3 {
		t.Fatalf("state has %d layers, want 3", len(st))
	}
	for i, ls := range st {
		for _, m := range []*mat.Dense{ls.Cell, ls.Hidden} {
			r, c := m.Dims()
			if r != 4 || c != 8 {
				t.Errorf("layer %d shape (%d,%d), want (4,8)", i, r, c)
			}
			if mat.Norm(m, 1) != 0 {
				t.Errorf("layer %d state not zero", i)
			}
		}
	}
}

func TestValidateState(t *testing.T) {
	if err := validateState(NewZeroState(2, 4, 8), 2, 4, 8); err != nil {
		t.Errorf("valid state rejected: %v", err)
	}
	// A flat single-layer state fed to a deeper model must fail loudly.
	if err := validateState(NewZeroState(1, 4, 8), 2, 4, 8); err == nil {
		t.Error("wrong layer count accepted")
	}
	if err := validateState(NewZeroState(2, 3, 8), 2, 4, 8); err == nil {
		t.Error("wrong batch dimension accepted")
	}
	if err := validateState(NewZeroState(2, 4, 16), 2, 4, 8); err == nil {
		t.Error("wrong hidden dimension accepted")
	}
	st := NewZeroState(2, 4, 8)
	st[1].Cell = nil
	if err := validateState(st, 2, 4, 8); err == nil {
		t.Error("nil cell tensor accepted")
	}
}
