package gated

import (
	"bytes"
	"log"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// State is the per-node state a propagation starts from. Row i of Hidden and Memory belongs to node i.
// Both are (Nodes, StateDim). A nil *State starts from zeros.
type State struct {
	Hidden *tensor.Dense
	Memory *tensor.Dense
}

// Step is what one propagation step computed.
type Step struct {
	Messages   *tensor.Dense // (N, N, MessageDim): Messages[i, j] is the message from i to j
	Aggregated *tensor.Dense // (N, MessageDim)
	Hidden     *tensor.Dense // (N, StateDim) after the step
	Memory     *tensor.Dense // (N, StateDim) after the step
}

// Trace records a whole forward pass.
type Trace struct {
	Steps  []Step
	Output *tensor.Dense // (N, 2)
}

// Inferencer is a struct that holds the state for a GGNN graph and a VM. By using an Inferencer,
// there is no need to build and compile the graph every time an inference needs to be done.
//
// The graph is bound to the tensors of the *Params it was created with, so parameter updates made
// through those tensors are seen by later calls. An Inferencer is not safe for concurrent use.
type Inferencer struct {
	n *net
	m G.VM

	couplings, biases *tensor.Dense
	hidden, memory    *tensor.Dense

	buf *bytes.Buffer
}

// Infer takes a set of parameters and creates an inference data structure such that it'd be easy to infer
func Infer(p *Params, toLog bool) (*Inferencer, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	retVal := &Inferencer{
		n:         newNet(p),
		couplings: zeros(p.Nodes*p.Nodes, 1),
		biases:    zeros(p.Nodes, 1),
		hidden:    zeros(p.Nodes, p.StateDim),
		memory:    zeros(p.Nodes, p.StateDim),
		buf:       new(bytes.Buffer),
	}
	if err := retVal.n.init(); err != nil {
		return nil, errors.WithMessage(err, "unable to build GGNN graph")
	}

	if toLog {
		logger := log.New(retVal.buf, "", 0)
		retVal.m = G.NewTapeMachine(retVal.n.g,
			G.WithLogger(logger),
			G.WithWatchlist(),
			G.TraceExec(),
			G.WithValueFmt("%+1.3v"),
			G.WithNaNWatch(),
		)
	} else {
		retVal.m = G.NewTapeMachine(retVal.n.g)
	}
	return retVal, nil
}

// Forward runs a single forward pass with a throwaway Inferencer.
func Forward(p *Params, J, b *tensor.Dense) (*tensor.Dense, error) {
	inf, err := Infer(p, false)
	if err != nil {
		return nil, err
	}
	defer inf.Close()
	return inf.Infer(J, b)
}

// Config returns the configuration the Inferencer was built for.
func (m *Inferencer) Config() Config { return m.n.Config }

// Infer computes the per-node readout of the pairwise model (J, b).
// J must be a (Nodes, Nodes) matrix and b a vector of length Nodes. The result is (Nodes, 2), every value in (0, 1).
func (m *Inferencer) Infer(J, b *tensor.Dense) (*tensor.Dense, error) {
	if err := m.run(J, b, nil); err != nil {
		return nil, err
	}
	return cloneValue(m.n.output, "output")
}

// Propagate is Infer, starting from the given state and recording every step.
func (m *Inferencer) Propagate(J, b *tensor.Dense, init *State) (*Trace, error) {
	if err := m.run(J, b, init); err != nil {
		return nil, err
	}

	retVal := &Trace{Steps: make([]Step, len(m.n.steps))}
	var err error
	for s, v := range m.n.steps {
		st := &retVal.Steps[s]
		if st.Messages, err = cloneValue(v.messages, "messages"); err != nil {
			return nil, err
		}
		if err = st.Messages.Reshape(m.n.Nodes, m.n.Nodes, m.n.MessageDim); err != nil {
			return nil, errors.WithStack(err)
		}
		if st.Aggregated, err = cloneValue(v.aggregated, "aggregated messages"); err != nil {
			return nil, err
		}
		if st.Hidden, err = cloneValue(v.hidden, "hidden states"); err != nil {
			return nil, err
		}
		if st.Memory, err = cloneValue(v.memory, "memory"); err != nil {
			return nil, err
		}
	}
	if retVal.Output, err = cloneValue(m.n.output, "output"); err != nil {
		return nil, err
	}
	return retVal, nil
}

func (m *Inferencer) run(J, b *tensor.Dense, init *State) error {
	if err := m.load(J, b, init); err != nil {
		return err
	}

	m.buf.Reset()
	m.m.Reset()
	lets := []struct {
		n *G.Node
		v *tensor.Dense
	}{
		{m.n.couplings, m.couplings},
		{m.n.biases, m.biases},
		{m.n.hidden0, m.hidden},
		{m.n.memory0, m.memory},
	}
	for _, l := range lets {
		if err := G.Let(l.n, l.v); err != nil {
			return errors.Wrapf(err, "unable to let %v", l.n.Name())
		}
	}
	if err := m.m.RunAll(); err != nil {
		return errors.Wrap(err, "GGNN forward pass failed")
	}
	return nil
}

// load checks the inputs and copies them to the preallocated input tensors.
func (m *Inferencer) load(J, b *tensor.Dense, init *State) error {
	n := m.n.Nodes
	if err := checkCouplings(J, n); err != nil {
		return err
	}
	if err := checkBiases(b, n); err != nil {
		return err
	}
	copy(m.couplings.Data().([]float32), J.Data().([]float32))
	copy(m.biases.Data().([]float32), b.Data().([]float32))

	if init == nil {
		m.hidden.Zero()
		m.memory.Zero()
		return nil
	}
	if err := checkState(init.Hidden, "hidden", n, m.n.StateDim); err != nil {
		return err
	}
	if err := checkState(init.Memory, "memory", n, m.n.StateDim); err != nil {
		return err
	}
	copy(m.hidden.Data().([]float32), init.Hidden.Data().([]float32))
	copy(m.memory.Data().([]float32), init.Memory.Data().([]float32))
	return nil
}

// ExecLog returns the execution log. If Infer was called with toLog = false, then it will return an empty string
func (m *Inferencer) ExecLog() string { return m.buf.String() }

// ToDot returns the expression graph in graphviz format.
func (m *Inferencer) ToDot() string { return m.n.g.ToDot() }

// Close implements a closer, because well, a gorgonia VM is a resource.
func (m *Inferencer) Close() error { return m.m.Close() }
