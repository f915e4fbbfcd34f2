package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LayerState is the recurrent memory of one LSTM layer: the cell memory and
// the hidden output, each shaped (batch, hidden).
type LayerState struct {
	Cell   *mat.Dense
	Hidden *mat.Dense
}

// State is the full per-layer recurrent state of a stacked model, ordered
// bottom layer first. It is always owned and threaded by the caller; the
// model never retains it between calls.
type State []LayerState

// NewZeroState allocates an all-zero state for the given shape, used at the
// start of every epoch and every generation run.
func NewZeroState(numLayers, batchSize, hiddenSize int) State {
	st := make(State, numLayers)
	for i := range st {
		st[i] = LayerState{
			Cell:   mat.NewDense(batchSize, hiddenSize, nil),
			Hidden: mat.NewDense(batchSize, hiddenSize, nil),
		}
	}
	return st
}

// validateState checks the state's structure against the model shape before
// every forward call, so a mismatched state surfaces as an immediate error
// instead of an opaque shape failure deep inside the math.
func validateState(st State, numLayers, batchSize, hiddenSize int) error {
	if len(st) != numLayers {
		return fmt.Errorf("nn: state has %d layers, model has %d", len(st), numLayers)
	}
	for i, ls := range st {
		if ls.Cell == nil || ls.Hidden == nil {
			return fmt.Errorf("nn: state layer %d is missing a cell or hidden tensor", i)
		}
		for _, m := range []*mat.Dense{ls.Cell, ls.Hidden} {
			r, c := m.Dims()
			if r != batchSize || c != hiddenSize {
				return fmt.Errorf("nn: state layer %d has shape (%d,%d), model expects (%d,%d)",
					i, r, c, batchSize, hiddenSize)
			}
		}
	}
	return nil
}
