package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/gorgonia/ggnn"
	gifenc "github.com/gorgonia/ggnn/encoding/gif"
	gated "github.com/gorgonia/ggnn/gatednet"
	"gorgonia.org/tensor"
	"gorgonia.org/tensor/native"
)

var (
	nodes     = flag.Int("nodes", 9, "number of variables")
	steps     = flag.Int("steps", 10, "propagation steps")
	state     = flag.Int("state", 8, "hidden state width")
	message   = flag.Int("message", 4, "message width")
	structure = flag.String("structure", "grid", "interaction structure: complete, path, cycle, star or grid")
	coupling  = flag.Float64("coupling", 0.5, "standard deviation of the couplings")
	bias      = flag.Float64("bias", 0.25, "standard deviation of the biases")
	seed      = flag.Int64("seed", 1337, "seed for the model and the parameters")
	params    = flag.String("params", "", "load GGNN parameters from this file")
	save      = flag.String("save", "", "save the GGNN parameters to this file")
	gifOut    = flag.String("gif", "", "render the propagation to this GIF")
	dotOut    = flag.String("dot", "", "write the model in graphviz format to this file")
	statsOut  = flag.String("stats", "", "dump the error statistics to this CSV file")
	toLog     = flag.Bool("log", false, "keep the execution log of the GGNN")
)

func main() {
	flag.Parse()

	s, err := ggnn.ParseStructure(*structure)
	if err != nil {
		log.Fatal(err)
	}
	g, err := ggnn.NewGenerator(s, *coupling, *bias, *seed).Generate(*nodes)
	if err != nil {
		log.Fatalf("%+v", err)
	}

	nnConf := gated.DefaultConf(*nodes, *state, *message)
	nnConf.Steps = *steps
	conf := ggnn.Config{
		Name:   fmt.Sprintf("GGNN on a %v of %d nodes", s, *nodes),
		NNConf: nnConf,
		Seed:   *seed,
		ToLog:  *toLog,
	}
	e, err := ggnn.New(conf)
	if err != nil {
		log.Fatalf("%+v", err)
	}
	defer e.Close()
	if *params != "" {
		if err = e.Load(*params); err != nil {
			log.Fatalf("%+v", err)
		}
	}

	inferers := []struct {
		name string
		ggnn.Inferer
	}{
		{"ggnn", e},
		{"independent", ggnn.Independent{}},
	}
	results := make([]*tensor.Dense, len(inferers))
	for i, inf := range inferers {
		if results[i], err = inf.Infer(g); err != nil {
			log.Fatalf("%s: %+v", inf.name, err)
		}
	}

	stats := ggnn.MakeStatistics()
	exact, err := ggnn.Exact{}.Infer(g)
	if err != nil {
		log.Printf("No exact marginals: %v", err)
	} else {
		for i, inf := range inferers {
			if err = stats.Record(inf.name, results[i], exact); err != nil {
				log.Fatalf("%+v", err)
			}
		}
	}

	fmt.Println(conf.Name)
	fmt.Printf("%-6s%12s%12s%12s\n", "node", "ggnn", "independent", "exact")
	columns := make([][][]float32, 0, 3)
	for _, r := range append(results, exact) {
		if r == nil {
			continue
		}
		rows, err := native.MatrixF32(r)
		if err != nil {
			log.Fatalf("%+v", err)
		}
		columns = append(columns, rows)
	}
	for i := 0; i < *nodes; i++ {
		fmt.Printf("x%-5d", i)
		for _, c := range columns {
			fmt.Printf("%12.4f", c[i][1])
		}
		fmt.Println()
	}
	for _, name := range stats.Creation {
		fmt.Printf("%s: mean absolute error %.4f\n", name, stats.Mean(name))
	}

	if *statsOut != "" {
		if err = stats.Dump(*statsOut); err != nil {
			log.Fatalf("%+v", err)
		}
	}
	if *dotOut != "" {
		dot, err := g.ToDot()
		if err != nil {
			log.Fatalf("%+v", err)
		}
		if err = ioutil.WriteFile(*dotOut, []byte(dot), 0644); err != nil {
			log.Fatal(err)
		}
	}
	if *gifOut != "" {
		f, err := os.OpenFile(*gifOut, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		enc := gifenc.NewGifEncoder(1080, 1920)
		enc.Writer = f
		if err = e.Render(conf.Name, g, enc); err != nil {
			log.Fatalf("%+v", err)
		}
		if err = enc.Flush(); err != nil {
			log.Fatalf("%+v", err)
		}
	}
	if *save != "" {
		if err = e.Save(*save); err != nil {
			log.Fatalf("%+v", err)
		}
	}
	if *toLog {
		log.Print(e.Log())
	}
}
