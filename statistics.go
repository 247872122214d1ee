package ggnn

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
	"gorgonia.org/tensor/native"
	"gorgonia.org/vecf32"
)

// Statistics records how far each inferer is from a reference, one sample per model.
// Only the P(x_i = +1) column is compared.
type Statistics struct {
	Creation []string // inferer names, in order of first record
	MeanAbs  map[string][]float32
	MaxAbs   map[string][]float32
}

func MakeStatistics() Statistics {
	return Statistics{
		Creation: make([]string, 0, 4),
		MeanAbs:  make(map[string][]float32),
		MaxAbs:   make(map[string][]float32),
	}
}

// Record compares got against want and stores the mean and max absolute error under name.
func (s *Statistics) Record(name string, got, want *tensor.Dense) error {
	g, err := positive(got)
	if err != nil {
		return errors.WithMessage(err, name)
	}
	w, err := positive(want)
	if err != nil {
		return errors.WithMessage(err, "reference")
	}
	if len(g) != len(w) {
		return errors.Errorf("%s: %d marginals, reference has %d", name, len(g), len(w))
	}

	vecf32.Sub(g, w)
	var worst float32
	for i := range g {
		g[i] = math32.Abs(g[i])
		if g[i] > worst {
			worst = g[i]
		}
	}

	if _, ok := s.MeanAbs[name]; !ok {
		s.Creation = append(s.Creation, name)
	}
	s.MeanAbs[name] = append(s.MeanAbs[name], vecf32.Sum(g)/float32(len(g)))
	s.MaxAbs[name] = append(s.MaxAbs[name], worst)
	return nil
}

// Mean returns the mean absolute error of name across all its samples.
func (s *Statistics) Mean(name string) float32 {
	samples := s.MeanAbs[name]
	if len(samples) == 0 {
		return math32.NaN()
	}
	return vecf32.Sum(samples) / float32(len(samples))
}

// Dump writes one CSV row per recorded sample.
func (s *Statistics) Dump(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"inferer", "sample", "mean_abs_error", "max_abs_error"}); err != nil {
		return err
	}
	var records [][]string
	for _, name := range s.Creation {
		for j, mean := range s.MeanAbs[name] {
			records = append(records, []string{
				name,
				strconv.Itoa(j),
				strconv.FormatFloat(float64(mean), 'f', 6, 32),
				strconv.FormatFloat(float64(s.MaxAbs[name][j]), 'f', 6, 32),
			})
		}
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// positive copies the P(x_i = +1) column out of a (N, 2) result.
func positive(m *tensor.Dense) ([]float32, error) {
	if m == nil {
		return nil, errors.New("no marginals")
	}
	if s := m.Shape(); s.Dims() != 2 || s[1] != 2 {
		return nil, errors.Errorf("expected (N, 2) marginals. Got shape %v", s)
	}
	rows, err := native.MatrixF32(m)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	retVal := make([]float32, len(rows))
	for i, r := range rows {
		retVal[i] = r[1]
	}
	return retVal, nil
}
