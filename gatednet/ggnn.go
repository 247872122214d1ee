package gated

import (
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// net is the expression graph of one GGNN forward pass, bound to a set of Params.
//
// Pairs are laid out row-major: row i*Nodes+j of the pair matrices is the ordered pair (i, j),
// where i is the source and j the destination of the message.
type net struct {
	Config
	p *Params
	g *G.ExprGraph

	// inputs
	couplings *G.Node // (N², 1) J flattened row-major
	biases    *G.Node // (N, 1)
	hidden0   *G.Node // (N, S)
	memory0   *G.Node // (N, S)

	// constant selections
	src, dst, agg *tensor.Dense

	output G.Value
	steps  []stepValues
}

type stepValues struct {
	messages, aggregated, hidden, memory G.Value
}

func newNet(p *Params) *net {
	src, dst, agg := selectors(p.Nodes)
	return &net{
		Config: p.Config,
		p:      p,
		src:    src,
		dst:    dst,
		agg:    agg,
	}
}

func (n *net) init() error {
	n.g = G.NewGraph()
	n.steps = make([]stepValues, n.Steps)
	return n.fwd()
}

func (n *net) fwd() error {
	var m maebe
	g := n.g
	pairs := n.Nodes * n.Nodes

	n.couplings = G.NewMatrix(g, Float, G.WithShape(pairs, 1), G.WithName("J"))
	n.biases = G.NewMatrix(g, Float, G.WithShape(n.Nodes, 1), G.WithName("b"))
	n.hidden0 = G.NewMatrix(g, Float, G.WithShape(n.Nodes, n.StateDim), G.WithName("Hidden0"))
	n.memory0 = G.NewMatrix(g, Float, G.WithShape(n.Nodes, n.StateDim), G.WithName("Memory0"))

	src := m.bind(g, n.src, "SelectSource")
	dst := m.bind(g, n.dst, "SelectDestination")
	agg := m.bind(g, n.agg, "Aggregate")

	message := m.stack(g, n.p.Message[:], "Message")
	readout := m.stack(g, n.p.Readout[:], "Readout")
	propagator := m.cell(g, n.p.Propagator)

	// b[i] and b[j] for every pair
	bi := m.mul(src, n.biases)
	bj := m.mul(dst, n.biases)

	hidden, memory := n.hidden0, n.memory0
	for s := 0; s < n.Steps; s++ {
		hi := m.mul(src, hidden)
		hj := m.mul(dst, hidden)
		messages := m.mlp(m.concat(1, hi, hj, n.couplings, bi, bj), message)

		// sum over the source of every pair
		aggregated := m.mul(agg, messages)

		in := m.concat(1, hidden, aggregated)
		hidden, memory = m.gru(in, memory, propagator)
		if m.err != nil {
			return m.err
		}

		G.Read(messages, &n.steps[s].messages)
		G.Read(aggregated, &n.steps[s].aggregated)
		G.Read(hidden, &n.steps[s].hidden)
		G.Read(memory, &n.steps[s].memory)
	}

	output := m.sigmoid(m.mlp(hidden, readout))
	if m.err != nil {
		return m.err
	}
	G.Read(output, &n.output)
	return nil
}

// selectors builds the constant matrices that expand node values to pairs and sum pairs back to nodes.
//
//	src (N², N): row (i,j) picks node i
//	dst (N², N): row (i,j) picks node j
//	agg (N, N²): row j sums every pair whose destination is j
func selectors(nodes int) (src, dst, agg *tensor.Dense) {
	pairs := nodes * nodes
	src = zeros(pairs, nodes)
	dst = zeros(pairs, nodes)
	agg = zeros(nodes, pairs)

	s := src.Data().([]float32)
	d := dst.Data().([]float32)
	a := agg.Data().([]float32)
	for i := 0; i < nodes; i++ {
		for j := 0; j < nodes; j++ {
			row := i*nodes + j
			s[row*nodes+i] = 1
			d[row*nodes+j] = 1
			a[j*pairs+row] = 1
		}
	}
	return
}
