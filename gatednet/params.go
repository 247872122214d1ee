package gated

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/chewxy/math32"
	rng "github.com/leesper/go_rng"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

var Float = G.Float32

// DefaultStdDev is the standard deviation of the linear layer weights at construction.
const DefaultStdDev = 0.01

// Linear is an affine layer: x·W + B. W is (in, out) and B is (1, out).
type Linear struct {
	W *tensor.Dense
	B *tensor.Dense
}

// GRU holds the weights of the gated recurrent unit shared by every node and every step.
// The input weights are (StateDim+MessageDim, StateDim), the hidden weights are (StateDim, StateDim)
// and every bias is (1, StateDim).
type GRU struct {
	Wir, Wiz, Win *tensor.Dense
	Whr, Whz, Whn *tensor.Dense
	Bir, Biz, Bin *tensor.Dense
	Bhr, Bhz, Bhn *tensor.Dense
}

// Params holds the learned parameters of a GGNN. It owns no computation; see Infer and Forward.
type Params struct {
	Config

	Message    [3]Linear
	Readout    [3]Linear
	Propagator GRU
}

type initConf struct {
	seed   int64
	stddev float64
}

// InitOpt is an option for NewParams.
type InitOpt func(*initConf)

// WithSeed makes the initialization reproducible.
func WithSeed(seed int64) InitOpt { return func(c *initConf) { c.seed = seed } }

// WithStdDev sets the standard deviation of the linear layer weights. A zero std gives all-zero linear layers.
func WithStdDev(stddev float64) InitOpt { return func(c *initConf) { c.stddev = stddev } }

// NewParams allocates and initializes the parameters for the given config.
//
// Every linear weight is drawn from N(0, 0.01) and every linear bias is zero.
// The GRU weights and biases are drawn from U(-1/√StateDim, 1/√StateDim).
func NewParams(conf Config, opts ...InitOpt) (*Params, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	ic := initConf{
		seed:   time.Now().UnixNano(),
		stddev: DefaultStdDev,
	}
	for _, opt := range opts {
		opt(&ic)
	}
	if ic.stddev < 0 {
		return nil, errors.Errorf("invalid standard deviation %v", ic.stddev)
	}

	p := alloc(conf)
	gauss := rng.NewGaussianGenerator(ic.seed)
	for _, l := range p.Linears() {
		w := l.W.Data().([]float32)
		for i := range w {
			w[i] = float32(gauss.Gaussian(0, ic.stddev))
		}
	}

	k := 1 / math32.Sqrt(float32(conf.StateDim))
	uni := rng.NewUniformGenerator(ic.seed + 1)
	for _, t := range p.Propagator.tensors() {
		data := t.Data().([]float32)
		for i := range data {
			data[i] = uni.Float32Range(-k, k)
		}
	}
	return p, nil
}

// alloc allocates zeroed parameters.
func alloc(conf Config) *Params {
	s, in := conf.StateDim, conf.propagatorInput()
	p := &Params{
		Config: conf,
		Message: [3]Linear{
			newLinear(conf.messageInput(), conf.MessageHidden),
			newLinear(conf.MessageHidden, conf.MessageHidden),
			newLinear(conf.MessageHidden, conf.MessageDim),
		},
		Readout: [3]Linear{
			newLinear(conf.StateDim, conf.ReadoutHidden),
			newLinear(conf.ReadoutHidden, conf.ReadoutHidden),
			newLinear(conf.ReadoutHidden, 2),
		},
		Propagator: GRU{
			Wir: zeros(in, s), Wiz: zeros(in, s), Win: zeros(in, s),
			Whr: zeros(s, s), Whz: zeros(s, s), Whn: zeros(s, s),
			Bir: zeros(1, s), Biz: zeros(1, s), Bin: zeros(1, s),
			Bhr: zeros(1, s), Bhz: zeros(1, s), Bhn: zeros(1, s),
		},
	}
	return p
}

func newLinear(in, out int) Linear { return Linear{W: zeros(in, out), B: zeros(1, out)} }

func zeros(shape ...int) *tensor.Dense {
	return tensor.New(tensor.WithShape(shape...), tensor.Of(Float))
}

func (g *GRU) tensors() []*tensor.Dense {
	return []*tensor.Dense{
		g.Wir, g.Wiz, g.Win,
		g.Whr, g.Whz, g.Whn,
		g.Bir, g.Biz, g.Bin,
		g.Bhr, g.Bhz, g.Bhn,
	}
}

// Linears returns the linear layers of the message and readout functions, in that order.
func (p *Params) Linears() []Linear {
	retVal := make([]Linear, 0, len(p.Message)+len(p.Readout))
	retVal = append(retVal, p.Message[:]...)
	retVal = append(retVal, p.Readout[:]...)
	return retVal
}

// tensors lists every parameter tensor in a fixed order. The order is the encoding order.
func (p *Params) tensors() []*tensor.Dense {
	var retVal []*tensor.Dense
	for _, l := range p.Linears() {
		retVal = append(retVal, l.W, l.B)
	}
	return append(retVal, p.Propagator.tensors()...)
}

// Clone returns a deep copy of the parameters.
func (p *Params) Clone() *Params {
	p2 := alloc(p.Config)
	if err := p2.CopyFrom(p); err != nil {
		panic(err) // same config, cannot happen
	}
	return p2
}

// CopyFrom copies the values of other into the tensors of p, keeping p's tensors.
// Anything bound to p's tensors sees the new values.
func (p *Params) CopyFrom(other *Params) error {
	if p.Config != other.Config {
		return errors.Errorf("cannot copy parameters of %+v into %+v", other.Config, p.Config)
	}
	dst := p.tensors()
	for i, src := range other.tensors() {
		copy(dst[i].Data().([]float32), src.Data().([]float32))
	}
	return nil
}

func (p *Params) GobEncode() (retVal []byte, err error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err = enc.Encode(p.Config); err != nil {
		return nil, errors.WithStack(err)
	}
	for _, t := range p.tensors() {
		if err = enc.Encode(t); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return buf.Bytes(), nil
}

func (p *Params) GobDecode(data []byte) error {
	dec := gob.NewDecoder(bytes.NewBuffer(data))
	var conf Config
	if err := dec.Decode(&conf); err != nil {
		return errors.WithStack(err)
	}
	if err := conf.Validate(); err != nil {
		return err
	}
	decoded := alloc(conf)
	for i, t := range decoded.tensors() {
		want := t.Shape().Clone()
		if err := dec.Decode(t); err != nil {
			return errors.Wrapf(err, "decoding parameter %d", i)
		}
		if !t.Shape().Eq(want) {
			return errors.Errorf("parameter %d: expected shape %v. Got %v instead", i, want, t.Shape())
		}
	}
	*p = *decoded
	return nil
}
