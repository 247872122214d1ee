package ggnn

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	rng "github.com/leesper/go_rng"
	"github.com/pkg/errors"
)

// Structure is the shape of the interaction graph of a generated model.
type Structure int

const (
	Complete Structure = iota // every pair interacts
	Path                      // i interacts with i+1
	Cycle                     // a path closed on itself
	Star                      // node 0 interacts with every other node
	Grid                      // nodes on the smallest square grid that fits them, 4-neighbourhood
	MAXSTRUCTURE
)

var structureNames = [...]string{"complete", "path", "cycle", "star", "grid"}

func (s Structure) String() string {
	if s < 0 || s >= MAXSTRUCTURE {
		return fmt.Sprintf("Structure(%d)", int(s))
	}
	return structureNames[s]
}

// ParseStructure parses the name of a structure, as printed by String.
func ParseStructure(name string) (Structure, error) {
	for i, n := range structureNames {
		if strings.EqualFold(n, name) {
			return Structure(i), nil
		}
	}
	return MAXSTRUCTURE, errors.Errorf("unknown structure %q. Expected one of %v", name, structureNames[:])
}

// Generator generates random pairwise models. Couplings and biases are drawn from zero mean gaussians.
type Generator struct {
	Structure
	CouplingStd float64
	BiasStd     float64

	gauss *rng.GaussianGenerator
}

// NewGenerator creates a seeded generator.
func NewGenerator(s Structure, couplingStd, biasStd float64, seed int64) *Generator {
	return &Generator{
		Structure:   s,
		CouplingStd: couplingStd,
		BiasStd:     biasStd,
		gauss:       rng.NewGaussianGenerator(seed),
	}
}

// Generate creates a model with n nodes. J is symmetric with a zero diagonal.
func (gen *Generator) Generate(n int) (*Graph, error) {
	if n <= 0 {
		return nil, errors.Errorf("cannot generate a model with %d nodes", n)
	}
	edges, err := gen.edges(n)
	if err != nil {
		return nil, err
	}

	couplings := make([][]float32, n)
	for i := range couplings {
		couplings[i] = make([]float32, n)
	}
	for _, e := range edges {
		w := float32(gen.gauss.Gaussian(0, gen.CouplingStd))
		couplings[e[0]][e[1]] = w
		couplings[e[1]][e[0]] = w
	}
	biases := make([]float32, n)
	for i := range biases {
		biases[i] = float32(gen.gauss.Gaussian(0, gen.BiasStd))
	}
	return NewGraph(couplings, biases)
}

// edges lists the interacting pairs (i, j), i < j.
func (gen *Generator) edges(n int) (retVal [][2]int, err error) {
	switch gen.Structure {
	case Complete:
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				retVal = append(retVal, [2]int{i, j})
			}
		}
	case Path:
		for i := 0; i+1 < n; i++ {
			retVal = append(retVal, [2]int{i, i + 1})
		}
	case Cycle:
		for i := 0; i+1 < n; i++ {
			retVal = append(retVal, [2]int{i, i + 1})
		}
		if n > 2 {
			retVal = append(retVal, [2]int{0, n - 1})
		}
	case Star:
		for i := 1; i < n; i++ {
			retVal = append(retVal, [2]int{0, i})
		}
	case Grid:
		side := int(math32.Ceil(math32.Sqrt(float32(n))))
		for i := 0; i < n; i++ {
			if (i+1)%side != 0 && i+1 < n {
				retVal = append(retVal, [2]int{i, i + 1})
			}
			if i+side < n {
				retVal = append(retVal, [2]int{i, i + side})
			}
		}
	default:
		return nil, errors.Errorf("cannot generate edges for %v", gen.Structure)
	}
	return retVal, nil
}
