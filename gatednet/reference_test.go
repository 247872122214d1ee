package gated

import (
	"github.com/chewxy/math32"
	"gorgonia.org/tensor"
	"gorgonia.org/tensor/native"
)

// reference is a plain loop-over-pairs forward pass, used to check the expression graph.
type reference struct {
	p      *Params
	hidden [][][]float32 // per step
	output [][]float32
}

func (r *reference) linear(x []float32, l Linear) []float32 {
	s := l.W.Shape()
	in, out := s[0], s[1]
	w := l.W.Data().([]float32)
	y := make([]float32, out)
	copy(y, l.B.Data().([]float32))
	for k := 0; k < in; k++ {
		for o := 0; o < out; o++ {
			y[o] += x[k] * w[k*out+o]
		}
	}
	return y
}

func (r *reference) mlp(x []float32, ls []Linear) []float32 {
	for _, l := range ls {
		x = r.linear(x, l)
		for i := range x {
			if x[i] < 0 {
				x[i] = 0
			}
		}
	}
	return x
}

func (r *reference) gru(x, mem []float32) []float32 {
	g := r.p.Propagator
	gate := func(wi, bi, wh, bh *tensor.Dense) ([]float32, []float32) {
		return r.linear(x, Linear{wi, bi}), r.linear(mem, Linear{wh, bh})
	}
	ri, rh := gate(g.Wir, g.Bir, g.Whr, g.Bhr)
	zi, zh := gate(g.Wiz, g.Biz, g.Whz, g.Bhz)
	ni, nh := gate(g.Win, g.Bin, g.Whn, g.Bhn)

	h := make([]float32, len(mem))
	for k := range h {
		rk := sigmoid(ri[k] + rh[k])
		zk := sigmoid(zi[k] + zh[k])
		nk := math32.Tanh(ni[k] + rk*nh[k])
		h[k] = (1-zk)*nk + zk*mem[k]
	}
	return h
}

func (r *reference) forward(J, b *tensor.Dense) error {
	conf := r.p.Config
	n := conf.Nodes
	couplings, err := native.MatrixF32(J)
	if err != nil {
		return err
	}
	biases := b.Data().([]float32)

	hidden := make([][]float32, n)
	memory := make([][]float32, n)
	for i := range hidden {
		hidden[i] = make([]float32, conf.StateDim)
		memory[i] = make([]float32, conf.StateDim)
	}

	r.hidden = nil
	for s := 0; s < conf.Steps; s++ {
		agg := make([][]float32, n)
		for j := range agg {
			agg[j] = make([]float32, conf.MessageDim)
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				in := append(append(append([]float32{}, hidden[i]...), hidden[j]...), couplings[i][j], biases[i], biases[j])
				msg := r.mlp(in, r.p.Message[:])
				for k, v := range msg {
					agg[j][k] += v
				}
			}
		}

		next := make([][]float32, n)
		for i := 0; i < n; i++ {
			x := append(append([]float32{}, hidden[i]...), agg[i]...)
			next[i] = r.gru(x, memory[i])
		}
		hidden = next
		memory = next
		r.hidden = append(r.hidden, next)
	}

	r.output = make([][]float32, n)
	for i := range hidden {
		out := r.mlp(hidden[i], r.p.Readout[:])
		for k := range out {
			out[k] = sigmoid(out[k])
		}
		r.output[i] = out
	}
	return nil
}

func sigmoid(x float32) float32 { return 1 / (1 + math32.Exp(-x)) }
