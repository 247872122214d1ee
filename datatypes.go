package ggnn

import (
	"io"

	gated "github.com/gorgonia/ggnn/gatednet"
	"gorgonia.org/tensor"
)

type Config struct {
	Name    string
	NNConf  gated.Config
	Workers int   // number of inferencers in the pool. Defaults to 1
	Seed    int64 // parameter initialization seed. 0 seeds from the clock
	ToLog   bool  // keep the gorgonia execution logs
}

// Inferer is anything that can estimate the marginals of a pairwise model.
//
// The result is (N, 2). Column 0 relates to x_i = -1 and column 1 to x_i = +1.
type Inferer interface {
	Infer(g *Graph) (*tensor.Dense, error)
	io.Closer
}

// OutputEncoder encodes the trace of a forward pass as whatever.
//
// The GIF encoder in encoding/gif is an OutputEncoder.
type OutputEncoder interface {
	Encode(name string, t *gated.Trace) error
	Flush() error
}

// ExecLogger is anything that can return the execution log.
type ExecLogger interface {
	ExecLog() string
}
