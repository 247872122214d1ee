package ggnn

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestNewGraph(t *testing.T) {
	g, err := NewGraph([][]float32{{0, 1, 0}, {1, 0, 2}, {0, 2, 0}}, []float32{0.1, 0, -0.1})
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	assert.Equal(t, 3, g.Nodes())
	assert.Equal(t, 2, g.Edges())
	assert.True(t, g.IsSymmetric())

	g.J.Data().([]float32)[1] = 3
	assert.False(t, g.IsSymmetric())

	_, err = NewGraph([][]float32{{0, 1}, {1, 0}}, []float32{0})
	assert.Error(t, err)
	_, err = NewGraph([][]float32{{0, 1}, {1}}, []float32{0, 0})
	assert.Error(t, err)
}

func TestGraphValidate(t *testing.T) {
	bad := []*Graph{
		{},
		{J: tensor.New(tensor.WithShape(2, 3), tensor.Of(tensor.Float32)), B: tensor.New(tensor.WithShape(2), tensor.Of(tensor.Float32))},
		{J: tensor.New(tensor.WithShape(2, 2), tensor.Of(tensor.Float64)), B: tensor.New(tensor.WithShape(2), tensor.Of(tensor.Float64))},
		{J: tensor.New(tensor.WithShape(2, 2), tensor.Of(tensor.Float32)), B: tensor.New(tensor.WithShape(2, 1), tensor.Of(tensor.Float32))},
	}
	for i, g := range bad {
		assert.Error(t, g.Validate(), "%d", i)
	}
}

func TestNewGraphEmpty(t *testing.T) {
	g, err := NewGraph(nil, nil)
	assert.Nil(t, g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one node")

	_, err = Exact{}.Infer(&Graph{})
	assert.Error(t, err)
}

func TestGraphToDot(t *testing.T) {
	g, err := NewGraph([][]float32{{0, 0.5, 0}, {0.5, 0, 0}, {0, 0, 0}}, []float32{1, 0, 0})
	require.NoError(t, err)
	dot, err := g.ToDot()
	require.NoError(t, err)
	t.Log(dot)

	assert.Contains(t, dot, "graph G")
	assert.Equal(t, 1, strings.Count(dot, "--"), "one edge")
	assert.Contains(t, dot, "0.500")
	assert.Contains(t, dot, "b=1.000")
}
