package checkpoint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/djeday123/charlstm/nn"
)

func testParams(scale float64) []*nn.Parameter {
	w := &nn.Parameter{Name: "layer0/wx", Value: mat.NewDense(2, 3, nil)}
	b := &nn.Parameter{Name: "layer0/b", Value: mat.NewDense(1, 3, nil)}
	for _, p := range []*nn.Parameter{w, b} {
		rows, cols := p.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				p.Value.Set(i, j, scale*float64(i*cols+j+1))
			}
		}
	}
	return []*nn.Parameter{w, b}
}

func testSnapshot(iter int, valLoss float64) *Snapshot {
	return &Snapshot{
		Iteration: iter,
		ValLoss:   valLoss,
		Config:    nn.Config{VocabSize: 3, HiddenSize: 8, NumLayers: 1, BatchSize: 2, WindowLen: 4, KeepProb: 1, LearnRate: 0.01},
		Vocab:     "abc",
		Params:    FromParams(testParams(1.0)),
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	path, err := store.Save(testSnapshot(42, 1.2345))
	if err != nil {
		t.Fatal(err)
	}
	if base := filepath.Base(path); base != "i42_l8_1.234.json" && base != "i42_l8_1.235.json" {
		t.Errorf("unexpected checkpoint name %q", base)
	}

	snap, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Iteration != 42 || snap.Vocab != "abc" {
		t.Errorf("loaded iteration=%d vocab=%q", snap.Iteration, snap.Vocab)
	}

	restored := testParams(0)
	if err := Apply(snap.Params, restored); err != nil {
		t.Fatal(err)
	}
	want := testParams(1.0)
	for k := range want {
		if !mat.EqualApprox(restored[k].Value, want[k].Value, 1e-12) {
			t.Errorf("parameter %s not restored", want[k].Name)
		}
	}
}

func TestApplyValidatesShapes(t *testing.T) {
	states := FromParams(testParams(1.0))

	missing := []*nn.Parameter{{Name: "other", Value: mat.NewDense(2, 3, nil)}}
	if err := Apply(states, missing); err == nil {
		t.Error("unknown parameter name accepted")
	}

	wrongShape := []*nn.Parameter{{Name: "layer0/wx", Value: mat.NewDense(3, 2, nil)}}
	if err := Apply(states, wrongShape); err == nil {
		t.Error("mismatched shape accepted")
	}
}

func TestRetentionEviction(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 5; i++ {
		if _, err := store.Save(testSnapshot(i*100, float64(i))); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if len(names) != 2 {
		t.Fatalf("%d checkpoints remain, want 2: %v", len(names), names)
	}
	for _, n := range names {
		if !strings.HasPrefix(n, "i400_") && !strings.HasPrefix(n, "i500_") {
			t.Errorf("stale checkpoint %q survived eviction", n)
		}
	}
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, iter := range []int{100, 900, 300} {
		if _, err := store.Save(testSnapshot(iter, 2.0)); err != nil {
			t.Fatal(err)
		}
	}
	path, err := store.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(filepath.Base(path), "i900_") {
		t.Errorf("Latest = %q, want the i900 snapshot", path)
	}
}

func TestLatestEmptyDir(t *testing.T) {
	store, err := NewStore(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Latest(); err == nil {
		t.Error("Latest on an empty store did not fail")
	}
}
