package gated

import "github.com/pkg/errors"

// Config configures the gated graph neural network
type Config struct {
	Nodes         int // number of nodes in the pairwise model
	StateDim      int // width of a node's hidden state
	MessageDim    int // width of a message
	MessageHidden int // hidden width of the message function
	ReadoutHidden int // hidden width of the readout function

	Steps int // propagation steps
}

// DefaultConf returns a config with 10 propagation steps and hidden widths of twice the state width.
func DefaultConf(nodes, stateDim, messageDim int) Config {
	return Config{
		Nodes:         nodes,
		StateDim:      stateDim,
		MessageDim:    messageDim,
		MessageHidden: 2 * stateDim,
		ReadoutHidden: 2 * stateDim,
		Steps:         10,
	}
}

func (conf Config) IsValid() bool { return conf.Validate() == nil }

// Validate returns an error naming the first field that is not positive.
func (conf Config) Validate() error {
	fields := []struct {
		name string
		v    int
	}{
		{"Nodes", conf.Nodes},
		{"StateDim", conf.StateDim},
		{"MessageDim", conf.MessageDim},
		{"MessageHidden", conf.MessageHidden},
		{"ReadoutHidden", conf.ReadoutHidden},
		{"Steps", conf.Steps},
	}
	for _, f := range fields {
		if f.v <= 0 {
			return errors.Errorf("invalid config: %s must be positive. Got %d", f.name, f.v)
		}
	}
	return nil
}

// messageInput is the width of a message function input: both hidden states, J[i,j], b[i] and b[j].
func (conf Config) messageInput() int { return 2*conf.StateDim + 3 }

// propagatorInput is the width of a GRU input: the hidden state and the aggregated message.
func (conf Config) propagatorInput() int { return conf.StateDim + conf.MessageDim }
