package gif

import (
	"bytes"
	stdgif "image/gif"
	"testing"

	gated "github.com/gorgonia/ggnn/gatednet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestEncoder(t *testing.T) {
	conf := gated.DefaultConf(3, 4, 2)
	conf.Steps = 3
	p, err := gated.NewParams(conf, gated.WithSeed(1337), gated.WithStdDev(0.5))
	require.NoError(t, err)
	inf, err := gated.Infer(p, false)
	require.NoError(t, err)
	defer inf.Close()

	J := tensor.New(tensor.WithShape(3, 3), tensor.WithBacking([]float32{0, 1, 0, 1, 0, -1, 0, -1, 0}))
	b := tensor.New(tensor.WithShape(3), tensor.WithBacking([]float32{0.5, 0, -0.5}))
	trace, err := inf.Propagate(J, b, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	enc := NewGifEncoder(600, 800)
	enc.Writer = &buf
	require.NoError(t, enc.Encode("path of three", trace))
	assert.Equal(t, conf.Steps+1, enc.Frames())
	require.NoError(t, enc.Flush())

	decoded, err := stdgif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Len(t, decoded.Image, conf.Steps+1)
	assert.Equal(t, readoutDelay, decoded.Delay[conf.Steps])
	assert.True(t, enc.W <= 800 && enc.H <= 600)

	assert.Error(t, enc.Encode("empty", &gated.Trace{}))
}

func TestShade(t *testing.T) {
	assert.Equal(t, uint8(0), shade(-2).Y)
	assert.Equal(t, uint8(255), shade(1).Y)
	assert.Equal(t, uint8(127), shade(0).Y)
}
