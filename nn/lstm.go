package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// LSTM is one recurrent layer with fused gate weights. Gate pre-activations
// are laid out column-wise as [input | forget | candidate | output], each
// HiddenSize columns wide.
type LSTM struct {
	Wx *Parameter // [inputSize, 4*hidden]
	Wh *Parameter // [hidden, 4*hidden]
	B  *Parameter // [1, 4*hidden]

	InputSize  int
	HiddenSize int
}

// NewLSTM creates a layer with Xavier-scaled weights and the forget-gate
// bias block initialized to 1 so early training does not flush the cell.
func NewLSTM(name string, inputSize, hiddenSize int, rng *rand.Rand) *LSTM {
	l := &LSTM{
		Wx:         newRandomParameter(name+"/wx", inputSize, 4*hiddenSize, math.Sqrt(1.0/float64(inputSize)), rng),
		Wh:         newRandomParameter(name+"/wh", hiddenSize, 4*hiddenSize, math.Sqrt(1.0/float64(hiddenSize)), rng),
		B:          newParameter(name+"/b", 1, 4*hiddenSize),
		InputSize:  inputSize,
		HiddenSize: hiddenSize,
	}
	for j := hiddenSize; j < 2*hiddenSize; j++ {
		l.B.Value.Set(0, j, 1.0)
	}
	return l
}

// lstmStep caches one timestep's values for the backward pass.
type lstmStep struct {
	x        *mat.Dense // (batch, inputSize)
	hPrev    *mat.Dense // (batch, hidden)
	cPrev    *mat.Dense
	gates    *mat.Dense // (batch, 4*hidden), post-activation
	cell     *mat.Dense
	tanhCell *mat.Dense
}

// Forward processes a window of inputs, one (batch, inputSize) matrix per
// timestep, starting from the caller-supplied state. It never mutates the
// incoming state. Returns per-timestep hidden outputs, the end-of-window
// state, and the cache needed by Backward.
func (l *LSTM) Forward(xs []*mat.Dense, st LayerState) ([]*mat.Dense, LayerState, []lstmStep) {
	h, c := st.Hidden, st.Cell
	H := l.HiddenSize
	hs := make([]*mat.Dense, len(xs))
	steps := make([]lstmStep, len(xs))

	for t, x := range xs {
		gates := new(mat.Dense)
		gates.Mul(x, l.Wx.Value)
		rec := new(mat.Dense)
		rec.Mul(h, l.Wh.Value)
		gates.Add(gates, rec)

		b, _ := gates.Dims()
		for i := 0; i < b; i++ {
			for j := 0; j < 4*H; j++ {
				v := gates.At(i, j) + l.B.Value.At(0, j)
				if j >= 2*H && j < 3*H {
					gates.Set(i, j, math.Tanh(v))
				} else {
					gates.Set(i, j, sigmoid(v))
				}
			}
		}

		cell := mat.NewDense(b, H, nil)
		tanhCell := mat.NewDense(b, H, nil)
		hNew := mat.NewDense(b, H, nil)
		for i := 0; i < b; i++ {
			for j := 0; j < H; j++ {
				in := gates.At(i, j)
				f := gates.At(i, H+j)
				g := gates.At(i, 2*H+j)
				o := gates.At(i, 3*H+j)
				cv := f*c.At(i, j) + in*g
				tc := math.Tanh(cv)
				cell.Set(i, j, cv)
				tanhCell.Set(i, j, tc)
				hNew.Set(i, j, o*tc)
			}
		}

		steps[t] = lstmStep{x: x, hPrev: h, cPrev: c, gates: gates, cell: cell, tanhCell: tanhCell}
		h, c = hNew, cell
		hs[t] = hNew
	}
	return hs, LayerState{Cell: c, Hidden: h}, steps
}

// Backward runs backpropagation through the cached window, accumulating
// parameter gradients. dhs is the loss gradient w.r.t. each timestep's
// hidden output. Gradients stop at the window boundary: the incoming state
// is treated as a constant, which is what makes the training truncated.
// Per-timestep input gradients are computed only when needDX is true (the
// bottom layer's one-hot inputs have no use for them).
func (l *LSTM) Backward(dhs []*mat.Dense, steps []lstmStep, needDX bool) []*mat.Dense {
	T := len(steps)
	H := l.HiddenSize
	var dxs []*mat.Dense
	if needDX {
		dxs = make([]*mat.Dense, T)
	}

	var dhNext, dcNext *mat.Dense
	for t := T - 1; t >= 0; t-- {
		s := steps[t]
		b, _ := s.cell.Dims()
		dz := mat.NewDense(b, 4*H, nil)
		dcPrev := mat.NewDense(b, H, nil)

		for i := 0; i < b; i++ {
			for j := 0; j < H; j++ {
				dh := dhs[t].At(i, j)
				if dhNext != nil {
					dh += dhNext.At(i, j)
				}
				in := s.gates.At(i, j)
				f := s.gates.At(i, H+j)
				g := s.gates.At(i, 2*H+j)
				o := s.gates.At(i, 3*H+j)
				tc := s.tanhCell.At(i, j)

				dc := dh * o * (1 - tc*tc)
				if dcNext != nil {
					dc += dcNext.At(i, j)
				}

				do := dh * tc
				di := dc * g
				df := dc * s.cPrev.At(i, j)
				dg := dc * in

				dz.Set(i, j, di*in*(1-in))
				dz.Set(i, H+j, df*f*(1-f))
				dz.Set(i, 2*H+j, dg*(1-g*g))
				dz.Set(i, 3*H+j, do*o*(1-o))
				dcPrev.Set(i, j, dc*f)
			}
		}

		dwx := new(mat.Dense)
		dwx.Mul(s.x.T(), dz)
		l.Wx.Grad.Add(l.Wx.Grad, dwx)

		dwh := new(mat.Dense)
		dwh.Mul(s.hPrev.T(), dz)
		l.Wh.Grad.Add(l.Wh.Grad, dwh)

		for j := 0; j < 4*H; j++ {
			sum := l.B.Grad.At(0, j)
			for i := 0; i < b; i++ {
				sum += dz.At(i, j)
			}
			l.B.Grad.Set(0, j, sum)
		}

		if needDX {
			dx := new(mat.Dense)
			dx.Mul(dz, l.Wx.Value.T())
			dxs[t] = dx
		}

		dhPrev := new(mat.Dense)
		dhPrev.Mul(dz, l.Wh.Value.T())
		dhNext, dcNext = dhPrev, dcPrev
	}
	return dxs
}

// Parameters returns the trainable parameters.
func (l *LSTM) Parameters() []*Parameter {
	return []*Parameter{l.Wx, l.Wh, l.B}
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
