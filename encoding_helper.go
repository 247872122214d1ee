package ggnn

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
	"gorgonia.org/tensor/native"
)

// PermuteGraph relabels the nodes of g: node k of the result is node perm[k] of g.
func PermuteGraph(g *Graph, perm []int) (*Graph, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	n := g.Nodes()
	if err := checkPermutation(perm, n); err != nil {
		return nil, err
	}
	rows, err := g.Couplings()
	if err != nil {
		return nil, err
	}
	biases := g.Biases()

	couplings := make([][]float32, n)
	permuted := make([]float32, n)
	for a := range couplings {
		couplings[a] = make([]float32, n)
		for b := range couplings[a] {
			couplings[a][b] = rows[perm[a]][perm[b]]
		}
		permuted[a] = biases[perm[a]]
	}
	return NewGraph(couplings, permuted)
}

// PermuteMarginals relabels the rows of a (N, 2) result the same way PermuteGraph relabels nodes.
func PermuteMarginals(m *tensor.Dense, perm []int) (*tensor.Dense, error) {
	rows, err := native.MatrixF32(m)
	if err != nil {
		return nil, errors.Wrap(err, "marginals")
	}
	if err = checkPermutation(perm, len(rows)); err != nil {
		return nil, err
	}
	cols := m.Shape()[1]
	backing := make([]float32, 0, len(rows)*cols)
	for _, p := range perm {
		backing = append(backing, rows[p]...)
	}
	return tensor.New(tensor.WithShape(len(rows), cols), tensor.WithBacking(backing)), nil
}

// InvertPermutation returns q such that q[perm[k]] = k.
func InvertPermutation(perm []int) ([]int, error) {
	if err := checkPermutation(perm, len(perm)); err != nil {
		return nil, err
	}
	retVal := make([]int, len(perm))
	for k, p := range perm {
		retVal[p] = k
	}
	return retVal, nil
}

func checkPermutation(perm []int, n int) error {
	if len(perm) != n {
		return errors.Errorf("expected a permutation of %d nodes. Got %d entries", n, len(perm))
	}
	seen := make([]bool, n)
	for _, p := range perm {
		if p < 0 || p >= n || seen[p] {
			return errors.Errorf("%v is not a permutation", perm)
		}
		seen[p] = true
	}
	return nil
}
