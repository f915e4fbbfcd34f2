package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// CrossEntropy computes the softmax cross-entropy between logits rows and
// integer targets, reduced to a scalar mean over all rows.
// logits: (n, vocabSize), targets: n ids.
func CrossEntropy(logits *mat.Dense, targets []int) (float64, error) {
	n, vocab := logits.Dims()
	if len(targets) != n {
		return 0, fmt.Errorf("nn: %d logits rows but %d targets", n, len(targets))
	}

	total := 0.0
	for r := 0; r < n; r++ {
		tgt := targets[r]
		if tgt < 0 || tgt >= vocab {
			return 0, fmt.Errorf("nn: target %d out of range [0, %d)", tgt, vocab)
		}

		// log-softmax with the usual max shift for stability
		maxVal := math.Inf(-1)
		for v := 0; v < vocab; v++ {
			if x := logits.At(r, v); x > maxVal {
				maxVal = x
			}
		}
		sumExp := 0.0
		for v := 0; v < vocab; v++ {
			sumExp += math.Exp(logits.At(r, v) - maxVal)
		}
		total += maxVal + math.Log(sumExp) - logits.At(r, tgt)
	}
	return total / float64(n), nil
}

// CrossEntropyGrad computes the gradient of CrossEntropy w.r.t. logits:
// softmax(logits) - one_hot(targets), averaged over the row count.
func CrossEntropyGrad(logits *mat.Dense, targets []int) (*mat.Dense, error) {
	n, vocab := logits.Dims()
	if len(targets) != n {
		return nil, fmt.Errorf("nn: %d logits rows but %d targets", n, len(targets))
	}

	grad := mat.NewDense(n, vocab, nil)
	scale := 1.0 / float64(n)
	for r := 0; r < n; r++ {
		tgt := targets[r]
		if tgt < 0 || tgt >= vocab {
			return nil, fmt.Errorf("nn: target %d out of range [0, %d)", tgt, vocab)
		}
		probs := softmaxRow(logits, r)
		for v := 0; v < vocab; v++ {
			g := probs[v]
			if v == tgt {
				g -= 1.0
			}
			grad.Set(r, v, g*scale)
		}
	}
	return grad, nil
}

func softmaxRow(logits *mat.Dense, r int) []float64 {
	_, vocab := logits.Dims()
	probs := make([]float64, vocab)

	maxVal := math.Inf(-1)
	for v := 0; v < vocab; v++ {
		if x := logits.At(r, v); x > maxVal {
			maxVal = x
		}
	}
	sumExp := 0.0
	for v := 0; v < vocab; v++ {
		probs[v] = math.Exp(logits.At(r, v) - maxVal)
		sumExp += probs[v]
	}
	for v := range probs {
		probs[v] /= sumExp
	}
	return probs
}
