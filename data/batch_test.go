package data

import "testing"

func seq(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func TestSplitShapes(t *testing.T) {
	cases := []struct {
		corpusLen, batch, window int
		frac                     float64
	}{
		{100, 2, 5, 0.8},
		{101, 2, 5, 0.8},
		{1000, 10, 10, 0.9},
		{31, 3, 5, 0.5},
	}
	for _, c := range cases {
		train, val, err := Split(seq(c.corpusLen), c.batch, c.window, c.frac)
		if err != nil {
			t.Fatalf("Split(%d,%d,%d,%g): %v", c.corpusLen, c.batch, c.window, c.frac, err)
		}
		nWindows := c.corpusLen / (c.batch * c.window)
		wantCols := nWindows * c.window
		if got := train.Cols() + val.Cols(); got != wantCols {
			t.Errorf("corpus %d: combined cols = %d, want %d", c.corpusLen, got, wantCols)
		}
		if train.Rows() != c.batch || val.Rows() != c.batch {
			t.Errorf("corpus %d: rows = %d/%d, want %d", c.corpusLen, train.Rows(), val.Rows(), c.batch)
		}
	}
}

func TestSplitEndToEnd(t *testing.T) {
	// "abcabcabcabc" encoded: a=0 b=1 c=2, length 12, batch 2, window 3.
	encoded := []int{0, 1, 2, 0, 1, 2, 0, 1, 2, 0, 1, 2}
	train, val, err := Split(encoded, 2, 3, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if train.Rows() != 2 || train.Cols() != 3 {
		t.Fatalf("train shape = (%d,%d), want (2,3)", train.Rows(), train.Cols())
	}
	if val.Rows() != 2 || val.Cols() != 3 {
		t.Fatalf("val shape = (%d,%d), want (2,3)", val.Rows(), val.Cols())
	}
	// Row 0 spans corpus [0:6), row 1 spans [6:12).
	wantTrain0 := []int{0, 1, 2}
	wantTrain1 := []int{0, 1, 2}
	for j := range wantTrain0 {
		if train.Inputs[0][j] != wantTrain0[j] || train.Inputs[1][j] != wantTrain1[j] {
			t.Fatalf("train inputs = %v / %v", train.Inputs[0], train.Inputs[1])
		}
	}
	// Final target of row 1 wraps to the first corpus character.
	if got := val.Targets[1][2]; got != 0 {
		t.Errorf("wrapped final target = %d, want 0", got)
	}
}

func TestShiftByOneAcrossWindows(t *testing.T) {
	train, val, err := Split(seq(200), 4, 5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	for _, set := range []*Set{train, val} {
		for i := 0; i < set.Rows(); i++ {
			for j := 0; j < set.Cols()-1; j++ {
				if set.Targets[i][j] != set.Inputs[i][j+1] {
					t.Fatalf("row %d col %d: target %d != next input %d",
						i, j, set.Targets[i][j], set.Inputs[i][j+1])
				}
			}
		}
	}
}

func TestSplitRowsContiguous(t *testing.T) {
	train, val, err := Split(seq(60), 3, 4, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	// Each row must be one contiguous span of the corpus; train and val
	// portions of a row must be adjacent.
	nWindows := 60 / 12
	rowLen := nWindows * 4
	for i := 0; i < 3; i++ {
		want := i * rowLen
		for _, set := range []*Set{train, val} {
			for j := 0; j < set.Cols(); j++ {
				if set.Inputs[i][j] != want {
					t.Fatalf("row %d: input %d, want %d", i, set.Inputs[i][j], want)
				}
				want++
			}
		}
	}
}

func TestSplitTooShort(t *testing.T) {
	if _, _, err := Split(seq(9), 2, 5, 0.8); err == nil {
		t.Error("expected error for corpus shorter than one window")
	}
	if _, _, err := Split(nil, 2, 5, 0.8); err == nil {
		t.Error("expected error for empty corpus")
	}
}

func TestWindowIterRestartable(t *testing.T) {
	train, _, err := Split(seq(120), 2, 4, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	count := func() int {
		n := 0
		it := train.Windows(4)
		for {
			x, y, ok := it.Next()
			if !ok {
				break
			}
			if len(x) != 2 || len(x[0]) != 4 || len(y) != 2 || len(y[0]) != 4 {
				t.Fatalf("window shape (%d,%d)", len(x), len(x[0]))
			}
			n++
		}
		return n
	}
	first := count()
	second := count()
	if first != second || first != train.NumWindows(4) {
		t.Errorf("sweeps yielded %d then %d windows, NumWindows=%d", first, second, train.NumWindows(4))
	}
}
