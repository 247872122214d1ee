package gated

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	nnops "gorgonia.org/gorgonia/ops/nn"
	"gorgonia.org/tensor"
)

type maebe struct {
	err error
}

// layer is a Linear bound into an expression graph.
type layer struct {
	w, b *G.Node
}

// cell is a GRU bound into an expression graph.
type cell struct {
	ir, iz, in layer
	hr, hz, hn layer
}

// generic monad... may be useful
func (m *maebe) do(f func() (*G.Node, error)) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = f(); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

// bind creates a matrix node holding t. The node and t share memory.
func (m *maebe) bind(g *G.ExprGraph, t *tensor.Dense, name string) *G.Node {
	if m.err != nil {
		return nil
	}
	s := t.Shape()
	if s.Dims() != 2 {
		m.err = errors.Errorf("%s: expected a matrix. Got shape %v", name, s)
		return nil
	}
	return G.NewMatrix(g, Float, G.WithShape(s.Clone()...), G.WithName(name), G.WithValue(t))
}

func (m *maebe) layer(g *G.ExprGraph, l Linear, name string) layer {
	return layer{
		w: m.bind(g, l.W, name+"_w"),
		b: m.bind(g, l.B, name+"_b"),
	}
}

func (m *maebe) stack(g *G.ExprGraph, ls []Linear, name string) []layer {
	retVal := make([]layer, len(ls))
	for i, l := range ls {
		retVal[i] = m.layer(g, l, name+string(rune('0'+i)))
	}
	return retVal
}

func (m *maebe) cell(g *G.ExprGraph, c GRU) cell {
	return cell{
		ir: layer{m.bind(g, c.Wir, "GRU_Wir"), m.bind(g, c.Bir, "GRU_bir")},
		iz: layer{m.bind(g, c.Wiz, "GRU_Wiz"), m.bind(g, c.Biz, "GRU_biz")},
		in: layer{m.bind(g, c.Win, "GRU_Win"), m.bind(g, c.Bin, "GRU_bin")},
		hr: layer{m.bind(g, c.Whr, "GRU_Whr"), m.bind(g, c.Bhr, "GRU_bhr")},
		hz: layer{m.bind(g, c.Whz, "GRU_Whz"), m.bind(g, c.Bhz, "GRU_bhz")},
		hn: layer{m.bind(g, c.Whn, "GRU_Whn"), m.bind(g, c.Bhn, "GRU_bhn")},
	}
}

// affine computes x·w + b, broadcasting the (1, out) bias over the rows of x.
func (m *maebe) affine(x *G.Node, l layer) *G.Node {
	xw := m.do(func() (*G.Node, error) { return G.Mul(x, l.w) })
	return m.do(func() (*G.Node, error) { return G.BroadcastAdd(xw, l.b, nil, []byte{0}) })
}

// mlp applies every layer followed by a ReLU, the last one included.
func (m *maebe) mlp(x *G.Node, ls []layer) *G.Node {
	for _, l := range ls {
		x = m.rectify(m.affine(x, l))
	}
	return x
}

// gru runs one step of the recurrent unit for every row of x. Row i of mem is the memory of node i.
// The unit's output and its new memory are the same value; both are returned to keep the roles apart.
func (m *maebe) gru(x, mem *G.Node, c cell) (out, next *G.Node) {
	r := m.sigmoid(m.add(m.affine(x, c.ir), m.affine(mem, c.hr)))
	z := m.sigmoid(m.add(m.affine(x, c.iz), m.affine(mem, c.hz)))
	n := m.tanh(m.add(m.affine(x, c.in), m.hadamard(r, m.affine(mem, c.hn))))

	// (1-z)⊙n + z⊙mem
	h := m.add(n, m.hadamard(z, m.sub(mem, n)))
	return h, h
}

func (m *maebe) mul(a, b *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Mul(a, b) })
}

func (m *maebe) add(a, b *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Add(a, b) })
}

func (m *maebe) sub(a, b *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Sub(a, b) })
}

func (m *maebe) hadamard(a, b *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.HadamardProd(a, b) })
}

func (m *maebe) concat(axis int, ns ...*G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Concat(axis, ns...) })
}

func (m *maebe) sigmoid(x *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Sigmoid(x) })
}

func (m *maebe) tanh(x *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Tanh(x) })
}

func (m *maebe) rectify(input *G.Node) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = nnops.Rectify(input); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}
