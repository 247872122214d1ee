package gated

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func checkCouplings(J *tensor.Dense, nodes int) error {
	if J == nil {
		return errors.New("J is nil")
	}
	if J.Dtype() != Float {
		return errors.Errorf("J: expected dtype %v. Got %v instead", Float, J.Dtype())
	}
	if s := J.Shape(); s.Dims() != 2 || s[0] != nodes || s[1] != nodes {
		return errors.Errorf("J: expected a %dx%d matrix. Got shape %v instead", nodes, nodes, s)
	}
	if J.IsView() {
		return errors.New("J: views are not supported, materialize it first")
	}
	return nil
}

func checkBiases(b *tensor.Dense, nodes int) error {
	if b == nil {
		return errors.New("b is nil")
	}
	if b.Dtype() != Float {
		return errors.Errorf("b: expected dtype %v. Got %v instead", Float, b.Dtype())
	}
	if s := b.Shape(); s.Dims() != 1 || s[0] != nodes {
		return errors.Errorf("b: expected a vector of length %d. Got shape %v instead", nodes, s)
	}
	if b.IsView() {
		return errors.New("b: views are not supported, materialize it first")
	}
	return nil
}

func checkState(t *tensor.Dense, name string, nodes, stateDim int) error {
	if t == nil {
		return errors.Errorf("initial %s state is nil", name)
	}
	if t.Dtype() != Float {
		return errors.Errorf("initial %s state: expected dtype %v. Got %v instead", name, Float, t.Dtype())
	}
	if s := t.Shape(); s.Dims() != 2 || s[0] != nodes || s[1] != stateDim {
		return errors.Errorf("initial %s state: expected shape (%d, %d). Got %v instead", name, nodes, stateDim, s)
	}
	if t.IsView() {
		return errors.Errorf("initial %s state: views are not supported, materialize it first", name)
	}
	return nil
}

// cloneValue copies a value read out of the VM, which reuses its memory across runs.
func cloneValue(v G.Value, what string) (*tensor.Dense, error) {
	t, ok := v.(*tensor.Dense)
	if !ok {
		return nil, errors.Errorf("%s: expected a *tensor.Dense. Got %T", what, v)
	}
	return t.Clone().(*tensor.Dense), nil
}
