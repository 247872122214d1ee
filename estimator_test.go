package ggnn

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	gated "github.com/gorgonia/ggnn/gatednet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor/native"
)

func testConf(nodes int) Config {
	nn := gated.DefaultConf(nodes, 6, 4)
	nn.Steps = 3
	return Config{
		Name:    "test",
		NNConf:  nn,
		Workers: 2,
		Seed:    1337,
	}
}

func TestEstimator(t *testing.T) {
	e, err := New(testConf(4))
	require.NoError(t, err)
	defer e.Close()

	g, err := NewGenerator(Cycle, 1, 0.5, 1).Generate(4)
	require.NoError(t, err)
	m, err := e.Infer(g)
	require.NoError(t, err)
	rows, err := native.MatrixF32(m)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for _, r := range rows {
		for _, v := range r {
			assert.True(t, v > 0 && v < 1, "%v is not a probability", v)
		}
	}

	trace, err := e.Propagate(g, nil)
	require.NoError(t, err)
	assert.Len(t, trace.Steps, 3)
	assert.Equal(t, m.Data(), trace.Output.Data())

	wrong, err := NewGenerator(Cycle, 1, 0.5, 1).Generate(5)
	require.NoError(t, err)
	_, err = e.Infer(wrong)
	assert.Error(t, err)
	assert.Contains(t, e.Log(), "2 inferencers")
}

func TestEstimatorClose(t *testing.T) {
	e, err := New(testConf(3))
	require.NoError(t, err)
	g, err := NewGenerator(Path, 1, 0.5, 3).Generate(3)
	require.NoError(t, err)
	_, err = e.Infer(g)
	require.NoError(t, err)

	require.NoError(t, e.Close())
	assert.NotPanics(t, func() { assert.NoError(t, e.Close()) })

	_, err = e.Infer(g)
	assert.Error(t, err)
	_, err = e.Propagate(g, nil)
	assert.Error(t, err)
}

func TestEstimatorInvalidConfig(t *testing.T) {
	conf := testConf(3)
	conf.NNConf.StateDim = 0
	_, err := New(conf)
	assert.Error(t, err)
}

func TestEstimatorConcurrentUse(t *testing.T) {
	e, err := New(testConf(3))
	require.NoError(t, err)
	defer e.Close()

	g, err := NewGenerator(Complete, 1, 0.5, 2).Generate(3)
	require.NoError(t, err)
	want, err := e.Infer(g)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]float32, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := e.Infer(g)
			if errs[i] = err; err == nil {
				results[i] = m.Data().([]float32)
			}
		}(i)
	}
	wg.Wait()
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want.Data(), results[i])
	}
}

func TestEstimatorPermutationEquivariance(t *testing.T) {
	conf := testConf(5)
	e, err := New(conf)
	require.NoError(t, err)
	defer e.Close()
	// small weights make every output ≈0.5. Larger ones make the test meaningful.
	p, err := gated.NewParams(conf.NNConf, gated.WithSeed(3), gated.WithStdDev(0.5))
	require.NoError(t, err)
	require.NoError(t, e.Params().CopyFrom(p))

	g, err := NewGenerator(Grid, 1, 1, 3).Generate(5)
	require.NoError(t, err)
	perm := []int{3, 0, 4, 1, 2}
	pg, err := PermuteGraph(g, perm)
	require.NoError(t, err)

	m, err := e.Infer(g)
	require.NoError(t, err)
	pm, err := e.Infer(pg)
	require.NoError(t, err)
	want, err := PermuteMarginals(m, perm)
	require.NoError(t, err)

	if diff := cmp.Diff(want.Data(), pm.Data(), cmpopts.EquateApprox(1e-4, 1e-5)); diff != "" {
		t.Errorf("relabelling the nodes should relabel the output (-want +got):\n%s", diff)
	}
}

func TestEstimatorSaveLoad(t *testing.T) {
	conf := testConf(3)
	a, err := New(conf)
	require.NoError(t, err)
	defer a.Close()
	conf.Seed = 42
	b, err := New(conf)
	require.NoError(t, err)
	defer b.Close()

	g, err := NewGenerator(Star, 1, 1, 5).Generate(3)
	require.NoError(t, err)
	ma, err := a.Infer(g)
	require.NoError(t, err)

	filename := filepath.Join(t.TempDir(), "ggnn.model")
	require.NoError(t, a.Save(filename))
	require.NoError(t, b.Load(filename))
	mb, err := b.Infer(g)
	require.NoError(t, err)
	assert.Equal(t, ma.Data(), mb.Data(), "B should infer with A's parameters")

	other := testConf(4)
	c, err := New(other)
	require.NoError(t, err)
	defer c.Close()
	assert.Error(t, c.Load(filename))
	assert.Error(t, c.Load(filepath.Join(t.TempDir(), "missing")))
}

func TestInferers(t *testing.T) {
	e, err := New(testConf(4))
	require.NoError(t, err)
	g, err := NewGenerator(Path, 0.5, 0.5, 9).Generate(4)
	require.NoError(t, err)

	stats := MakeStatistics()
	reference, err := Exact{}.Infer(g)
	require.NoError(t, err)
	inferers := map[string]Inferer{
		"ggnn":        e,
		"independent": Independent{},
		"exact":       Exact{},
	}
	for name, inf := range inferers {
		m, err := inf.Infer(g)
		require.NoError(t, err, name)
		require.NoError(t, stats.Record(name, m, reference), name)
		require.NoError(t, inf.Close(), name)
	}
	assert.InDelta(t, 0, stats.Mean("exact"), 1e-6)
	assert.Len(t, stats.Creation, 3)
}
