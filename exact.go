package ggnn

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
	"gorgonia.org/vecf32"
)

// DefaultMaxNodes is the largest model Exact enumerates unless told otherwise.
const DefaultMaxNodes = 20

// Exact computes the marginals by enumerating all 2^N assignments.
type Exact struct {
	MaxNodes int
}

func (e Exact) Infer(g *Graph) (*tensor.Dense, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	n := g.Nodes()
	limit := e.MaxNodes
	if limit <= 0 {
		limit = DefaultMaxNodes
	}
	if n > limit {
		return nil, errors.Errorf("refusing to enumerate %d nodes. The limit is %d", n, limit)
	}

	rows, err := g.Couplings()
	if err != nil {
		return nil, err
	}
	biases := g.Biases()

	// bit i of an assignment is x_i = +1
	assignments := 1 << uint(n)
	weights := make([]float32, assignments)
	x := make([]float32, n)
	for a := range weights {
		for i := range x {
			x[i] = -1
			if a&(1<<uint(i)) != 0 {
				x[i] = 1
			}
		}
		var energy float32
		for i := 0; i < n; i++ {
			energy += biases[i] * x[i]
			for j := i + 1; j < n; j++ {
				energy += rows[i][j] * x[i] * x[j]
			}
		}
		weights[a] = energy
	}

	vecf32.Trans(weights, -weights[vecf32.Argmax(weights)])
	for a := range weights {
		weights[a] = math32.Exp(weights[a])
	}
	z := vecf32.Sum(weights)

	plus := make([]float32, n)
	for a, w := range weights {
		for i := range plus {
			if a&(1<<uint(i)) != 0 {
				plus[i] += w
			}
		}
	}
	vecf32.Scale(plus, 1/z)
	return marginals(plus), nil
}

func (e Exact) Close() error { return nil }

// marginals lays out P(x_i = +1) as a (N, 2) matrix of [P(x_i = -1), P(x_i = +1)] rows.
func marginals(plus []float32) *tensor.Dense {
	backing := make([]float32, 2*len(plus))
	for i, p := range plus {
		backing[2*i] = 1 - p
		backing[2*i+1] = p
	}
	return tensor.New(tensor.WithShape(len(plus), 2), tensor.WithBacking(backing))
}
