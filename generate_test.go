package ggnn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		s     Structure
		n     int
		edges int
	}{
		{Complete, 5, 10},
		{Path, 5, 4},
		{Cycle, 5, 5},
		{Cycle, 2, 1},
		{Star, 5, 4},
		{Grid, 9, 12},
		{Grid, 5, 5}, // 3x3 grid, partially filled
		{Complete, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.s.String(), func(t *testing.T) {
			gen := NewGenerator(tt.s, 1, 0.5, 1337)
			g, err := gen.Generate(tt.n)
			require.NoError(t, err)
			require.NoError(t, g.Validate())
			assert.Equal(t, tt.n, g.Nodes())
			assert.Equal(t, tt.edges, g.Edges())
			assert.True(t, g.IsSymmetric())

			rows, err := g.Couplings()
			require.NoError(t, err)
			for i := range rows {
				assert.Zero(t, rows[i][i])
			}
		})
	}
}

func TestGenerateIsSeeded(t *testing.T) {
	g1, err := NewGenerator(Complete, 1, 1, 7).Generate(4)
	require.NoError(t, err)
	g2, err := NewGenerator(Complete, 1, 1, 7).Generate(4)
	require.NoError(t, err)
	assert.Equal(t, g1.J.Data(), g2.J.Data())
	assert.Equal(t, g1.B.Data(), g2.B.Data())

	_, err = NewGenerator(Complete, 1, 1, 7).Generate(0)
	assert.Error(t, err)
	_, err = NewGenerator(MAXSTRUCTURE, 1, 1, 7).Generate(3)
	assert.Error(t, err)
}

func TestParseStructure(t *testing.T) {
	for s := Complete; s < MAXSTRUCTURE; s++ {
		parsed, err := ParseStructure(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	s, err := ParseStructure("GRID")
	require.NoError(t, err)
	assert.Equal(t, Grid, s)

	_, err = ParseStructure("hypercube")
	assert.Error(t, err)
}
