package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Linear implements y = x @ W + b, used as the projection from the top
// LSTM layer's outputs to vocabulary logits.
type Linear struct {
	W    *Parameter // [inFeatures, outFeatures]
	B    *Parameter // [1, outFeatures]
	InF  int
	OutF int
}

// NewLinear creates a linear layer with Kaiming initialization.
func NewLinear(name string, inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	scale := math.Sqrt(2.0 / float64(inFeatures))
	return &Linear{
		W:    newRandomParameter(name+"/w", inFeatures, outFeatures, scale, rng),
		B:    newParameter(name+"/b", 1, outFeatures),
		InF:  inFeatures,
		OutF: outFeatures,
	}
}

// Forward computes x @ W + b. x shape: (n, inFeatures) → (n, outFeatures).
func (l *Linear) Forward(x *mat.Dense) *mat.Dense {
	out := new(mat.Dense)
	out.Mul(x, l.W.Value)
	n, _ := out.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < l.OutF; j++ {
			out.Set(i, j, out.At(i, j)+l.B.Value.At(0, j))
		}
	}
	return out
}

// Backward accumulates parameter gradients and returns the gradient with
// respect to x. x must be the same matrix passed to Forward.
func (l *Linear) Backward(x, dout *mat.Dense) *mat.Dense {
	dw := new(mat.Dense)
	dw.Mul(x.T(), dout)
	l.W.Grad.Add(l.W.Grad, dw)

	n, _ := dout.Dims()
	for j := 0; j < l.OutF; j++ {
		sum := l.B.Grad.At(0, j)
		for i := 0; i < n; i++ {
			sum += dout.At(i, j)
		}
		l.B.Grad.Set(0, j, sum)
	}

	dx := new(mat.Dense)
	dx.Mul(dout, l.W.Value.T())
	return dx
}

// Parameters returns the trainable parameters.
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.W, l.B}
}
