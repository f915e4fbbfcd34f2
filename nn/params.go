package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Parameter is one learnable weight matrix with its gradient accumulator.
// Biases are kept as 1-row matrices so the optimizer can treat every
// parameter uniformly.
type Parameter struct {
	Name  string
	Value *mat.Dense
	Grad  *mat.Dense
}

// Dims returns the parameter's matrix dimensions.
func (p *Parameter) Dims() (int, int) { return p.Value.Dims() }

func newParameter(name string, rows, cols int) *Parameter {
	return &Parameter{
		Name:  name,
		Value: mat.NewDense(rows, cols, nil),
		Grad:  mat.NewDense(rows, cols, nil),
	}
}

func newRandomParameter(name string, rows, cols int, scale float64, rng *rand.Rand) *Parameter {
	p := newParameter(name, rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			p.Value.Set(i, j, rng.NormFloat64()*scale)
		}
	}
	return p
}

// Optimizer applies accumulated gradients to parameters. The concrete
// implementation lives in the optim package; the model only needs these
// two operations.
type Optimizer interface {
	Step(params []*Parameter)
	ZeroGrad(params []*Parameter)
}
