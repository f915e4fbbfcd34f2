package optim

import (
	"math"

	"github.com/djeday123/charlstm/nn"
)

// Adam implements the Adam optimizer with global-norm gradient clipping
// applied before every update.
type Adam struct {
	LR       float64
	Beta1    float64 // first moment decay
	Beta2    float64 // second moment decay
	Eps      float64
	ClipNorm float64 // global L2 norm bound; 0 disables clipping

	// Moment estimates keyed by parameter name, allocated lazily so the
	// optimizer can be constructed before the model.
	m    map[string][]float64
	v    map[string][]float64
	step int
}

// NewAdam creates an optimizer with standard defaults.
func NewAdam(lr, clipNorm float64) *Adam {
	return &Adam{
		LR:       lr,
		Beta1:    0.9,
		Beta2:    0.999,
		Eps:      1e-8,
		ClipNorm: clipNorm,
		m:        make(map[string][]float64),
		v:        make(map[string][]float64),
	}
}

// Step clips gradients to the configured global norm and applies one Adam
// update. Gradients must already be accumulated on the parameters.
func (a *Adam) Step(params []*nn.Parameter) {
	a.step++

	if a.ClipNorm > 0 {
		clipGradNorm(params, a.ClipNorm)
	}

	bc1 := 1.0 - math.Pow(a.Beta1, float64(a.step))
	bc2 := 1.0 - math.Pow(a.Beta2, float64(a.step))

	for _, p := range params {
		rows, cols := p.Dims()
		n := rows * cols
		m, ok := a.m[p.Name]
		if !ok {
			m = make([]float64, n)
			a.m[p.Name] = m
			a.v[p.Name] = make([]float64, n)
		}
		v := a.v[p.Name]

		idx := 0
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				g := p.Grad.At(i, j)
				m[idx] = a.Beta1*m[idx] + (1-a.Beta1)*g
				v[idx] = a.Beta2*v[idx] + (1-a.Beta2)*g*g
				mHat := m[idx] / bc1
				vHat := v[idx] / bc2
				p.Value.Set(i, j, p.Value.At(i, j)-a.LR*mHat/(math.Sqrt(vHat)+a.Eps))
				idx++
			}
		}
	}
}

// ZeroGrad clears all gradient accumulators.
func (a *Adam) ZeroGrad(params []*nn.Parameter) {
	for _, p := range params {
		p.Grad.Zero()
	}
}

// GlobalGradNorm returns the L2 norm over every gradient element.
func GlobalGradNorm(params []*nn.Parameter) float64 {
	total := 0.0
	for _, p := range params {
		rows, cols := p.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				g := p.Grad.At(i, j)
				total += g * g
			}
		}
	}
	return math.Sqrt(total)
}

// clipGradNorm scales all gradients so their global L2 norm does not exceed
// maxNorm.
func clipGradNorm(params []*nn.Parameter, maxNorm float64) {
	total := GlobalGradNorm(params)
	if total <= maxNorm {
		return
	}
	scale := maxNorm / total
	for _, p := range params {
		p.Grad.Scale(scale, p.Grad)
	}
}
