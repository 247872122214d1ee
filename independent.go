package ggnn

import (
	"github.com/chewxy/math32"
	"gorgonia.org/tensor"
)

// Independent ignores the couplings: every variable only sees its own bias, so P(x_i = +1) = σ(2b_i).
// It is the baseline any estimator that uses J should beat.
type Independent struct{}

func (Independent) Infer(g *Graph) (*tensor.Dense, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	biases := g.Biases()
	plus := make([]float32, len(biases))
	for i, b := range biases {
		plus[i] = 1 / (1 + math32.Exp(-2*b))
	}
	return marginals(plus), nil
}

func (Independent) Close() error { return nil }
