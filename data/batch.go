package data

import "fmt"

// Set holds aligned input/target matrices: BatchSize rows, each row a
// contiguous slice of the encoded corpus so that hidden state carried
// across successive windows of a row follows true document order.
type Set struct {
	Inputs  [][]int
	Targets [][]int
}

// Rows returns the number of batch rows.
func (s *Set) Rows() int { return len(s.Inputs) }

// Cols returns the number of columns (characters per row).
func (s *Set) Cols() int {
	if len(s.Inputs) == 0 {
		return 0
	}
	return len(s.Inputs[0])
}

// Split partitions an encoded corpus into training and validation sets.
//
// slice_size = batchSize*windowLen characters form one full window across all
// rows; trailing characters beyond n_windows*slice_size are dropped. Targets
// are the inputs shifted one character ahead; when the corpus is exactly
// n_windows*slice_size long the final target wraps to the first character,
// so a corpus like "abcabcabcabc" with batch 2 and window 3 still yields two
// windows. Columns are split at floor(n_windows*trainFrac)*windowLen; both
// portions are contiguous and never shuffled.
func Split(encoded []int, batchSize, windowLen int, trainFrac float64) (train, val *Set, err error) {
	if batchSize <= 0 || windowLen <= 0 {
		return nil, nil, fmt.Errorf("data: batch size %d and window length %d must be positive", batchSize, windowLen)
	}
	if trainFrac <= 0 || trainFrac > 1 {
		return nil, nil, fmt.Errorf("data: train fraction %g out of range (0, 1]", trainFrac)
	}

	sliceSize := batchSize * windowLen
	nWindows := len(encoded) / sliceSize
	if nWindows < 1 {
		return nil, nil, fmt.Errorf("data: corpus of %d characters too short for batch size %d and window length %d (need at least %d)",
			len(encoded), batchSize, windowLen, sliceSize)
	}

	total := nWindows * sliceSize
	inputs := encoded[:total]
	targets := make([]int, total)
	copy(targets, encoded[1:total])
	if len(encoded) > total {
		targets[total-1] = encoded[total]
	} else {
		targets[total-1] = encoded[0]
	}

	rowLen := nWindows * windowLen
	splitCol := int(float64(nWindows)*trainFrac) * windowLen
	if splitCol < windowLen {
		return nil, nil, fmt.Errorf("data: train fraction %g leaves no full training window (%d windows total)", trainFrac, nWindows)
	}

	train = &Set{Inputs: make([][]int, batchSize), Targets: make([][]int, batchSize)}
	val = &Set{Inputs: make([][]int, batchSize), Targets: make([][]int, batchSize)}
	for i := 0; i < batchSize; i++ {
		inRow := inputs[i*rowLen : (i+1)*rowLen]
		tgRow := targets[i*rowLen : (i+1)*rowLen]
		train.Inputs[i] = inRow[:splitCol]
		train.Targets[i] = tgRow[:splitCol]
		val.Inputs[i] = inRow[splitCol:]
		val.Targets[i] = tgRow[splitCol:]
	}
	return train, val, nil
}

// WindowIter walks a Set left to right in non-overlapping windows.
// Each call to Windows returns a fresh iterator, so a Set can be swept
// any number of times.
type WindowIter struct {
	set       *Set
	windowLen int
	col       int
}

// Windows returns an iterator over (input, target) windows of windowLen
// columns. Trailing columns short of a full window are not yielded.
func (s *Set) Windows(windowLen int) *WindowIter {
	return &WindowIter{set: s, windowLen: windowLen}
}

// Next yields the next window. x and y are views into the underlying set,
// shaped (rows, windowLen). ok is false when the sweep is complete.
func (it *WindowIter) Next() (x, y [][]int, ok bool) {
	if it.col+it.windowLen > it.set.Cols() {
		return nil, nil, false
	}
	rows := it.set.Rows()
	x = make([][]int, rows)
	y = make([][]int, rows)
	for i := 0; i < rows; i++ {
		x[i] = it.set.Inputs[i][it.col : it.col+it.windowLen]
		y[i] = it.set.Targets[i][it.col : it.col+it.windowLen]
	}
	it.col += it.windowLen
	return x, y, true
}

// NumWindows returns how many windows a sweep will yield.
func (s *Set) NumWindows(windowLen int) int {
	if windowLen <= 0 {
		return 0
	}
	return s.Cols() / windowLen
}
