package ggnn

import (
	"bytes"
	"encoding/gob"
	"log"
	"os"
	"sync"

	gated "github.com/gorgonia/ggnn/gatednet"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Estimator is the top level structure and the entry point of the API.
// It owns a set of GGNN parameters and a pool of inferencers sharing them.
type Estimator struct {
	Config
	params *gated.Params

	sync.Mutex
	inferer  chan *gated.Inferencer
	inferers []*gated.Inferencer
	closed   bool

	buf    bytes.Buffer
	logger *log.Logger
}

// New creates an Estimator with freshly initialized parameters.
func New(conf Config) (*Estimator, error) {
	if err := conf.NNConf.Validate(); err != nil {
		return nil, errors.WithMessage(err, "NNConf is not valid. Unable to proceed")
	}
	if conf.Workers <= 0 {
		conf.Workers = 1
	}
	if conf.Name == "" {
		conf.Name = "GGNN"
	}

	var opts []gated.InitOpt
	if conf.Seed != 0 {
		opts = append(opts, gated.WithSeed(conf.Seed))
	}
	p, err := gated.NewParams(conf.NNConf, opts...)
	if err != nil {
		return nil, err
	}

	retVal := &Estimator{
		Config: conf,
		params: p,
	}
	retVal.logger = log.New(&retVal.buf, "", log.Ltime)
	if err = retVal.SwitchToInference(); err != nil {
		return nil, err
	}
	return retVal, nil
}

// SwitchToInference builds the pool of inferencers.
func (e *Estimator) SwitchToInference() (err error) {
	e.Lock()
	defer e.Unlock()
	e.inferer = make(chan *gated.Inferencer, e.Workers)
	for i := 0; i < e.Workers; i++ {
		var inf *gated.Inferencer
		if inf, err = gated.Infer(e.params, e.ToLog); err != nil {
			return err
		}
		e.inferers = append(e.inferers, inf)
		e.inferer <- inf
	}
	e.logger.Printf("%s: %d inferencers for %+v", e.Name, e.Workers, e.NNConf)
	return nil
}

// Params returns the parameters. They are shared with every inferencer of the pool.
func (e *Estimator) Params() *gated.Params { return e.params }

// Infer estimates the marginals of g. It is safe for concurrent use.
func (e *Estimator) Infer(g *Graph) (*tensor.Dense, error) {
	var retVal *tensor.Dense
	err := e.with(g, func(inf *gated.Inferencer) (err error) {
		retVal, err = inf.Infer(g.J, g.B)
		return
	})
	return retVal, err
}

// Propagate runs a forward pass on g from the given state (nil for a fresh start), recording every step.
func (e *Estimator) Propagate(g *Graph, init *gated.State) (*gated.Trace, error) {
	var retVal *gated.Trace
	err := e.with(g, func(inf *gated.Inferencer) (err error) {
		retVal, err = inf.Propagate(g.J, g.B, init)
		return
	})
	return retVal, err
}

// Render propagates g and hands the trace to the encoder.
func (e *Estimator) Render(name string, g *Graph, enc OutputEncoder) error {
	trace, err := e.Propagate(g, nil)
	if err != nil {
		return err
	}
	return errors.WithMessage(enc.Encode(name, trace), "unable to encode trace")
}

func (e *Estimator) with(g *Graph, fn func(*gated.Inferencer) error) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if n := g.Nodes(); n != e.NNConf.Nodes {
		return errors.Errorf("%s is configured for %d nodes. Got a model with %d", e.Name, e.NNConf.Nodes, n)
	}

	e.Lock()
	pool, closed := e.inferer, e.closed
	e.Unlock()
	if closed {
		return errors.Errorf("%s is closed", e.Name)
	}
	inf, ok := <-pool
	if !ok {
		return errors.Errorf("%s is closed", e.Name)
	}
	defer e.release(inf)

	if err := fn(inf); err != nil {
		if e.ToLog {
			e.logger.Println(inf.ExecLog())
		}
		e.logger.Printf("inference failed: %v", err)
		return err
	}
	return nil
}

// release hands inf back to the pool, unless the pool was closed in the meantime.
func (e *Estimator) release(inf *gated.Inferencer) {
	e.Lock()
	defer e.Unlock()
	if e.closed {
		return
	}
	select {
	case e.inferer <- inf:
	default:
	}
}

// Save the parameters into filename
func (e *Estimator) Save(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	enc := gob.NewEncoder(f)
	return errors.WithStack(enc.Encode(e.params))
}

// Load the parameters from filename. The saved parameters must have the same configuration.
func (e *Estimator) Load(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	loaded := new(gated.Params)
	dec := gob.NewDecoder(f)
	if err = dec.Decode(loaded); err != nil {
		return errors.WithStack(err)
	}

	// the inferencers are bound to e.params, so the values are copied rather than the pointer swapped
	e.Lock()
	defer e.Unlock()
	if err = e.params.CopyFrom(loaded); err != nil {
		return errors.WithMessage(err, "unable to load parameters")
	}
	e.logger.Printf("loaded parameters from %v", filename)
	return nil
}

// Log returns what the estimator logged so far. It should not be called while inferences are running.
func (e *Estimator) Log() string {
	e.Lock()
	defer e.Unlock()
	return e.buf.String()
}

// Close closes every inferencer. Inferences started afterwards fail. Closing twice is a no-op.
func (e *Estimator) Close() error {
	e.Lock()
	defer e.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	close(e.inferer)
	var allErrs manyErr
	for _, inf := range e.inferers {
		if err := inf.Close(); err != nil {
			allErrs = append(allErrs, err)
		}
	}
	e.inferers = nil
	if len(allErrs) > 0 {
		return allErrs
	}
	return nil
}
