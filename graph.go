package ggnn

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
	"gorgonia.org/tensor/native"
)

// Graph is a pairwise graphical model over binary variables x_i ∈ {-1, +1}:
//
//	p(x) ∝ exp(Σ_{i<j} J[i,j] x_i x_j + Σ_i b[i] x_i)
//
// J is (N, N) and symmetric by convention. B is a vector of length N.
type Graph struct {
	J *tensor.Dense
	B *tensor.Dense
}

// NewGraph copies the couplings and biases into a new *Graph.
func NewGraph(couplings [][]float32, biases []float32) (*Graph, error) {
	n := len(biases)
	if n == 0 {
		return nil, errors.New("a model needs at least one node")
	}
	if len(couplings) != n {
		return nil, errors.Errorf("expected %d rows of couplings. Got %d", n, len(couplings))
	}
	backing := make([]float32, 0, n*n)
	for i, row := range couplings {
		if len(row) != n {
			return nil, errors.Errorf("row %d of couplings has %d entries. Expected %d", i, len(row), n)
		}
		backing = append(backing, row...)
	}
	b := make([]float32, n)
	copy(b, biases)

	return &Graph{
		J: tensor.New(tensor.WithShape(n, n), tensor.WithBacking(backing)),
		B: tensor.New(tensor.WithShape(n), tensor.WithBacking(b)),
	}, nil
}

// Nodes returns the number of variables.
func (g *Graph) Nodes() int { return g.B.Shape().TotalSize() }

// Validate checks that J is a float32 (N, N) matrix and B a float32 vector of length N.
func (g *Graph) Validate() error {
	if g.J == nil || g.B == nil {
		return errors.New("graph has no couplings or biases")
	}
	if g.J.Dtype() != tensor.Float32 || g.B.Dtype() != tensor.Float32 {
		return errors.Errorf("expected float32 couplings and biases. Got %v and %v", g.J.Dtype(), g.B.Dtype())
	}
	n := g.Nodes()
	if g.B.Dims() != 1 {
		return errors.Errorf("expected biases to be a vector. Got shape %v", g.B.Shape())
	}
	if n == 0 {
		return errors.New("a model needs at least one node")
	}
	if s := g.J.Shape(); s.Dims() != 2 || s[0] != n || s[1] != n {
		return errors.Errorf("expected couplings to be %dx%d. Got shape %v", n, n, s)
	}
	return nil
}

// Couplings returns J as rows. The rows share memory with J.
func (g *Graph) Couplings() ([][]float32, error) {
	rows, err := native.MatrixF32(g.J)
	if err != nil {
		return nil, errors.Wrap(err, "couplings")
	}
	return rows, nil
}

// Biases returns b. The slice shares memory with B.
func (g *Graph) Biases() []float32 { return g.B.Data().([]float32) }

// IsSymmetric reports whether J[i,j] == J[j,i] for every pair.
func (g *Graph) IsSymmetric() bool {
	rows, err := g.Couplings()
	if err != nil {
		return false
	}
	for i := range rows {
		for j := i + 1; j < len(rows); j++ {
			if rows[i][j] != rows[j][i] {
				return false
			}
		}
	}
	return true
}

// Edges returns the number of nonzero couplings above the diagonal.
func (g *Graph) Edges() int {
	rows, err := g.Couplings()
	if err != nil {
		return 0
	}
	var retVal int
	for i := range rows {
		for j := i + 1; j < len(rows); j++ {
			if rows[i][j] != 0 {
				retVal++
			}
		}
	}
	return retVal
}

// ToDot renders the model as an undirected graphviz graph. Every node is labelled with its bias and
// every nonzero coupling above the diagonal is an edge labelled with its weight.
func (g *Graph) ToDot() (string, error) {
	rows, err := g.Couplings()
	if err != nil {
		return "", err
	}
	biases := g.Biases()

	dot := gographviz.NewGraph()
	if err = dot.SetName("G"); err != nil {
		return "", errors.WithStack(err)
	}
	if err = dot.SetDir(false); err != nil {
		return "", errors.WithStack(err)
	}
	for i, b := range biases {
		attrs := map[string]string{
			"label": strconv.Quote(fmt.Sprintf("%d\nb=%.3f", i, b)),
			"shape": "circle",
		}
		if err = dot.AddNode("G", nodeName(i), attrs); err != nil {
			return "", errors.WithStack(err)
		}
	}
	for i := range rows {
		for j := i + 1; j < len(rows); j++ {
			w := rows[i][j]
			if w == 0 {
				continue
			}
			attrs := map[string]string{
				"label": strconv.Quote(fmt.Sprintf("%.3f", w)),
			}
			if err = dot.AddEdge(nodeName(i), nodeName(j), false, attrs); err != nil {
				return "", errors.WithStack(err)
			}
		}
	}
	return dot.String(), nil
}

func nodeName(i int) string { return "x" + strconv.Itoa(i) }
