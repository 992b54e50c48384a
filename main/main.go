/*mdbench runs the pair-iteration engine over a particle snapshot and
reports per-configuration timings. The allowed configuration space comes
from an engine config file, the particles from a whitespace table of
x y z columns.

Example:
    $ mdbench -Config engine.cfg -Particles snapshot.txt -Steps 10
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/phil-mansfield/table"
	log "github.com/sirupsen/logrus"

	"github.com/phil-mansfield/pairwise"
	"github.com/phil-mansfield/pairwise/functor"
	"github.com/phil-mansfield/pairwise/geom"
	"github.com/phil-mansfield/pairwise/particle"
	"github.com/phil-mansfield/pairwise/selector"
)

func main() {
	var (
		configPath, particlePath string
		steps, threads           int
		cutoff, boxWidth         float64
		verbose                  bool
	)

	flag.StringVar(&configPath, "Config", "",
		"Engine config file. Required.")
	flag.StringVar(&particlePath, "Particles", "",
		"Whitespace table of x y z particle positions. Required.")
	flag.IntVar(&steps, "Steps", 10,
		"Number of interaction steps per configuration.")
	flag.IntVar(&threads, "Threads", runtime.NumCPU(),
		"Number of worker threads.")
	flag.Float64Var(&cutoff, "Cutoff", 1,
		"Interaction cutoff radius.")
	flag.Float64Var(&boxWidth, "BoxWidth", 0,
		"Cubic box side length. Default is the particle bounding box.")
	flag.BoolVar(&verbose, "Verbose", false,
		"Log engine decisions.")
	flag.Parse()

	if configPath == "" || particlePath == "" {
		fmt.Fprintf(os.Stderr, "Example config file:\n\n%s\n",
			selector.ExampleConfig)
		log.Fatalf("Both -Config and -Particles are required.")
	}
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
	pairwise.NumWorkers = threads
	runtime.GOMAXPROCS(threads)

	opts, err := selector.ReadConfig(configPath)
	if err != nil {
		log.Fatalf(err.Error())
	}

	xs, err := readParticles(particlePath)
	if err != nil {
		log.Fatalf(err.Error())
	}
	log.Infof("Read %d particles from %s", len(xs), particlePath)

	boxMin, boxMax := bounds(xs, boxWidth)

	fmt.Printf("# container traversal layout newton3 seconds\n")
	for _, copt := range opts.Containers {
		for _, topt := range opts.Traversals {
			if !selector.Compatible(copt, topt) {
				continue
			}
			for _, layout := range opts.DataLayouts {
				for _, n3 := range opts.Newton3 {
					runConfiguration(
						opts, copt, topt, layout, n3,
						boxMin, boxMax, cutoff, xs, steps,
					)
				}
			}
		}
	}
}

func runConfiguration(
	opts *selector.Options,
	copt pairwise.ContainerOption, topt pairwise.TraversalOption,
	layout pairwise.DataLayout, n3 bool,
	boxMin, boxMax geom.Vec, cutoff float64, xs []geom.Vec, steps int,
) {
	cont, err := selector.NewContainer(copt, selector.ContainerInfo{
		BoxMin: boxMin, BoxMax: boxMax,
		Cutoff: cutoff, Skin: opts.VerletSkin,
		CellSizeFactor:   opts.CellSizeFactors[0],
		RebuildFrequency: opts.VerletRebuildFrequency,
	})
	if err != nil {
		log.Fatalf(err.Error())
	}

	for i, x := range xs {
		p := particle.Particle{X: x, Id: int64(i)}
		if err := cont.AddParticle(p); err != nil {
			log.Fatalf(err.Error())
		}
	}

	lj := functor.NewLJFunctor(cutoff, 1, 1, 0, false)
	info := selector.TraversalInfoFor(cont, opts.VerletSkin)
	t, err := selector.GenerateTraversal(topt, lj, info, layout, n3)
	if err != nil {
		log.Debugf("skipping %v/%v/%v/newton3=%v: %v",
			copt, topt, layout, n3, err)
		return
	}

	best := time.Duration(0)
	for s := 0; s < opts.NumSamples; s++ {
		start := time.Now()
		for i := 0; i < steps; i++ {
			if err := cont.IteratePairwise(t); err != nil {
				log.Fatalf(err.Error())
			}
		}
		d := time.Since(start)
		if best == 0 || d < best {
			best = d
		}
	}

	fmt.Printf("%s %s %s %v %.6f\n",
		copt, topt, layout, n3, best.Seconds()/float64(steps))
}

// readParticles reads x y z columns from a whitespace table.
func readParticles(fname string) ([]geom.Vec, error) {
	cols, err := table.ReadTable(fname, []int{0, 1, 2}, nil)
	if err != nil {
		return nil, err
	}
	xs := make([]geom.Vec, len(cols[0]))
	for i := range xs {
		xs[i] = geom.Vec{cols[0][i], cols[1][i], cols[2][i]}
	}
	return xs, nil
}

// bounds returns the simulation box. With width <= 0 the particle
// bounding box is used, padded slightly so no particle sits on the upper
// wall.
func bounds(xs []geom.Vec, width float64) (boxMin, boxMax geom.Vec) {
	if width > 0 {
		return geom.Vec{}, geom.Vec{width, width, width}
	}
	boxMin, boxMax = xs[0], xs[0]
	for _, x := range xs {
		for k := 0; k < 3; k++ {
			if x[k] < boxMin[k] {
				boxMin[k] = x[k]
			}
			if x[k] > boxMax[k] {
				boxMax[k] = x[k]
			}
		}
	}
	for k := 0; k < 3; k++ {
		pad := 1e-3 * (boxMax[k] - boxMin[k] + 1)
		boxMax[k] += pad
	}
	return boxMin, boxMax
}
