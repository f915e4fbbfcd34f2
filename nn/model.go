package nn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Model is a stacked character-level LSTM with dropout between layers and a
// linear projection to vocabulary logits.
//
// The model is a pure function of (inputs, prior state, parameters):
// recurrent state is always supplied and returned explicitly, never stored,
// so the caller decides exactly where state resets happen. Parameters are
// mutated only by ForwardTrain, and only when an optimizer was supplied at
// construction; a model built without one is frozen and can be shared read-
// only between inference calls.
type Model struct {
	cfg    Config
	layers []*LSTM
	proj   *Linear
	opt    Optimizer
	rng    *rand.Rand
}

// NewModel builds a model for the given configuration. opt may be nil for a
// frozen inference-only model; ForwardTrain will refuse to run on it.
func NewModel(cfg Config, opt Optimizer, rng *rand.Rand) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	m := &Model{cfg: cfg, opt: opt, rng: rng}
	for i := 0; i < cfg.NumLayers; i++ {
		in := cfg.HiddenSize
		if i == 0 {
			in = cfg.VocabSize
		}
		m.layers = append(m.layers, NewLSTM(fmt.Sprintf("layer%d", i), in, cfg.HiddenSize, rng))
	}
	m.proj = NewLinear("proj", cfg.HiddenSize, cfg.VocabSize, rng)
	return m, nil
}

// Config returns the model's configuration.
func (m *Model) Config() Config { return m.cfg }

// ZeroState allocates an all-zero recurrent state matching the model shape.
func (m *Model) ZeroState() State {
	return NewZeroState(m.cfg.NumLayers, m.cfg.BatchSize, m.cfg.HiddenSize)
}

// Parameters returns all trainable parameters in a stable order.
func (m *Model) Parameters() []*Parameter {
	var params []*Parameter
	for _, l := range m.layers {
		params = append(params, l.Parameters()...)
	}
	params = append(params, m.proj.Parameters()...)
	return params
}

// CountParameters returns the total number of scalar weights.
func (m *Model) CountParameters() int {
	total := 0
	for _, p := range m.Parameters() {
		r, c := p.Dims()
		total += r * c
	}
	return total
}

// fwdCache holds everything the backward pass needs for one window.
type fwdCache struct {
	steps [][]lstmStep   // per layer, per timestep
	masks [][]*mat.Dense // per layer, per timestep dropout mask; nil without dropout
	topH  *mat.Dense     // (window*batch, hidden) input to the projection
}

// forward runs the stacked layers over one window. x is (batch, window) ids.
// Logits come back as a (window*batch, vocab) matrix with row t*batch+b.
func (m *Model) forward(x [][]int, prior State, training bool) (*mat.Dense, State, *fwdCache, error) {
	if err := m.checkWindow(x); err != nil {
		return nil, nil, nil, err
	}
	if err := validateState(prior, m.cfg.NumLayers, m.cfg.BatchSize, m.cfg.HiddenSize); err != nil {
		return nil, nil, nil, err
	}

	B := m.cfg.BatchSize
	T := len(x[0])
	H := m.cfg.HiddenSize
	dropout := training && m.cfg.KeepProb < 1

	// One-hot encode the window, one (batch, vocab) matrix per timestep.
	xs := make([]*mat.Dense, T)
	for t := 0; t < T; t++ {
		oh := mat.NewDense(B, m.cfg.VocabSize, nil)
		for b := 0; b < B; b++ {
			oh.Set(b, x[b][t], 1.0)
		}
		xs[t] = oh
	}

	next := make(State, m.cfg.NumLayers)
	cache := &fwdCache{
		steps: make([][]lstmStep, m.cfg.NumLayers),
		masks: make([][]*mat.Dense, m.cfg.NumLayers),
	}

	for li, layer := range m.layers {
		hs, st, steps := layer.Forward(xs, prior[li])
		next[li] = st
		cache.steps[li] = steps

		if dropout {
			masks := make([]*mat.Dense, T)
			for t := range hs {
				mask := mat.NewDense(B, H, nil)
				dropped := mat.NewDense(B, H, nil)
				for i := 0; i < B; i++ {
					for j := 0; j < H; j++ {
						if m.rng.Float64() < m.cfg.KeepProb {
							mv := 1.0 / m.cfg.KeepProb
							mask.Set(i, j, mv)
							dropped.Set(i, j, hs[t].At(i, j)*mv)
						}
					}
				}
				masks[t] = mask
				hs[t] = dropped
			}
			cache.masks[li] = masks
		}
		xs = hs
	}

	topH := mat.NewDense(T*B, H, nil)
	for t := 0; t < T; t++ {
		for b := 0; b < B; b++ {
			for j := 0; j < H; j++ {
				topH.Set(t*B+b, j, xs[t].At(b, j))
			}
		}
	}
	cache.topH = topH

	return m.proj.Forward(topH), next, cache, nil
}

// ForwardTrain runs one window with dropout, backpropagates, and applies a
// single optimizer step. Returns the mean loss and the end-of-window state.
func (m *Model) ForwardTrain(x, y [][]int, prior State) (float64, State, error) {
	if m.opt == nil {
		return 0, nil, fmt.Errorf("nn: model was built without an optimizer; training is disabled")
	}
	if err := m.checkWindow(y); err != nil {
		return 0, nil, err
	}

	logits, next, cache, err := m.forward(x, prior, true)
	if err != nil {
		return 0, nil, err
	}

	targets := m.flatten(y)
	loss, err := CrossEntropy(logits, targets)
	if err != nil {
		return 0, nil, err
	}

	m.opt.ZeroGrad(m.Parameters())

	dlogits, err := CrossEntropyGrad(logits, targets)
	if err != nil {
		return 0, nil, err
	}
	m.backward(dlogits, cache)
	m.opt.Step(m.Parameters())

	return loss, next, nil
}

// ForwardEval runs one window with dropout disabled and no parameter update.
func (m *Model) ForwardEval(x, y [][]int, prior State) (float64, State, error) {
	if err := m.checkWindow(y); err != nil {
		return 0, nil, err
	}
	logits, next, _, err := m.forward(x, prior, false)
	if err != nil {
		return 0, nil, err
	}
	loss, err := CrossEntropy(logits, m.flatten(y))
	if err != nil {
		return 0, nil, err
	}
	return loss, next, nil
}

// ForwardInfer feeds a single character through a sampling-mode model and
// returns the next-character distribution. The model must be configured
// with batch size 1 and window length 1.
func (m *Model) ForwardInfer(id int, prior State) ([]float64, State, error) {
	if m.cfg.BatchSize != 1 || m.cfg.WindowLen != 1 {
		return nil, nil, fmt.Errorf("nn: ForwardInfer requires a sampling-mode model (batch=1, window=1), have batch=%d window=%d",
			m.cfg.BatchSize, m.cfg.WindowLen)
	}
	logits, next, _, err := m.forward([][]int{{id}}, prior, false)
	if err != nil {
		return nil, nil, err
	}
	return softmaxRow(logits, 0), next, nil
}

// backward pushes the logits gradient down through the projection, dropout
// masks, and every LSTM layer, accumulating parameter gradients.
func (m *Model) backward(dlogits *mat.Dense, cache *fwdCache) {
	B := m.cfg.BatchSize
	H := m.cfg.HiddenSize
	T := len(cache.steps[0])

	dtop := m.proj.Backward(cache.topH, dlogits)

	dhs := make([]*mat.Dense, T)
	for t := 0; t < T; t++ {
		dhs[t] = dtop.Slice(t*B, (t+1)*B, 0, H).(*mat.Dense)
	}

	for li := m.cfg.NumLayers - 1; li >= 0; li-- {
		if masks := cache.masks[li]; masks != nil {
			for t := range dhs {
				dm := mat.NewDense(B, H, nil)
				dm.MulElem(dhs[t], masks[t])
				dhs[t] = dm
			}
		}
		dhs = m.layers[li].Backward(dhs, cache.steps[li], li > 0)
	}
}

// checkWindow validates a (batch, window) id matrix against the model shape.
func (m *Model) checkWindow(x [][]int) error {
	if len(x) != m.cfg.BatchSize {
		return fmt.Errorf("nn: window has %d rows, model batch size is %d", len(x), m.cfg.BatchSize)
	}
	for b, row := range x {
		if len(row) != m.cfg.WindowLen {
			return fmt.Errorf("nn: window row %d has %d columns, model window length is %d", b, len(row), m.cfg.WindowLen)
		}
		for _, id := range row {
			if id < 0 || id >= m.cfg.VocabSize {
				return fmt.Errorf("nn: character id %d out of range [0, %d)", id, m.cfg.VocabSize)
			}
		}
	}
	return nil
}

// flatten reorders a (batch, window) target matrix into the row order the
// logits matrix uses: timestep-major, batch row within timestep.
func (m *Model) flatten(y [][]int) []int {
	B := m.cfg.BatchSize
	T := m.cfg.WindowLen
	out := make([]int, T*B)
	for t := 0; t < T; t++ {
		for b := 0; b < B; b++ {
			out[t*B+b] = y[b][t]
		}
	}
	return out
}
