package selector

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/pairwise"
)

const (
	// ExampleConfig documents the engine config file format.
	ExampleConfig = `[Engine]

#######################
# Required Parameters #
#######################

# Comma separated list of containers the selector may pick from. Any of:
# directSum, linkedCells, verletLists, verletListsCells,
# verletClusterLists
Containers = linkedCells, verletLists

# Comma separated list of traversals the selector may pick from. Any of:
# directSumTraversal, c01, c04, c04SoA, c08, c18, sliced,
# verletTraversal, c01Verlet, c18Verlet, slicedVerlet,
# varVerletTraversalAsBuild, verletClusters, verletClustersColoring,
# c01Cuda
Traversals = c08, sliced, verletTraversal

# Comma separated list of data layouts. Any of: aos, soa, cuda.
DataLayouts = aos, soa

# Comma separated list of newton3 modes. Any of: enabled, disabled.
Newton3 = enabled, disabled

#######################
# Optional Parameters #
#######################

# Comma separated list of cell size factors relative to the cutoff.
# Default is 1.
# CellSizeFactors = 1, 2

# Radius added to the cutoff when neighbor lists are built, so lists
# survive a few steps of particle motion. Default is 0.2.
# VerletSkin = 0.2

# Number of interaction steps after which neighbor lists are rebuilt
# regardless of particle motion. Default is 20.
# VerletRebuildFrequency = 20

# Number of times each configuration is sampled when measuring. Default
# is 3.
# NumSamples = 3`
)

// Options is a parsed and validated engine configuration.
type Options struct {
	Containers      []pairwise.ContainerOption
	Traversals      []pairwise.TraversalOption
	DataLayouts     []pairwise.DataLayout
	Newton3         []bool
	CellSizeFactors []float64

	VerletSkin             float64
	VerletRebuildFrequency int
	NumSamples             int
}

type configFile struct {
	Engine struct {
		Containers             string
		Traversals             string
		DataLayouts            string
		Newton3                string
		CellSizeFactors        string
		VerletSkin             float64
		VerletRebuildFrequency int
		NumSamples             int
	}
}

// ReadConfig parses and validates an engine config file.
func ReadConfig(fname string) (*Options, error) {
	cfg := &configFile{}
	if err := gcfg.ReadFileInto(cfg, fname); err != nil {
		return nil, errors.Wrapf(err, "reading config %s", fname)
	}
	return newOptions(cfg)
}

// ParseConfig parses and validates an engine config from a string.
func ParseConfig(text string) (*Options, error) {
	cfg := &configFile{}
	if err := gcfg.ReadStringInto(cfg, text); err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	return newOptions(cfg)
}

func newOptions(cfg *configFile) (*Options, error) {
	e := &cfg.Engine
	opts := &Options{
		VerletSkin:             e.VerletSkin,
		VerletRebuildFrequency: e.VerletRebuildFrequency,
		NumSamples:             e.NumSamples,
	}
	if opts.VerletSkin == 0 {
		opts.VerletSkin = 0.2
	}
	if opts.VerletRebuildFrequency == 0 {
		opts.VerletRebuildFrequency = 20
	}
	if opts.NumSamples == 0 {
		opts.NumSamples = 3
	}

	if opts.VerletSkin < 0 {
		return nil, errors.Errorf(
			"VerletSkin must be positive, is %g", opts.VerletSkin)
	}
	if opts.VerletRebuildFrequency < 1 {
		return nil, errors.Errorf(
			"VerletRebuildFrequency must be at least 1, is %d",
			opts.VerletRebuildFrequency)
	}
	if opts.NumSamples < 1 {
		return nil, errors.Errorf(
			"NumSamples must be at least 1, is %d", opts.NumSamples)
	}

	for _, tag := range splitList(e.Containers) {
		c, err := pairwise.ParseContainerOption(tag)
		if err != nil {
			return nil, err
		}
		opts.Containers = append(opts.Containers, c)
	}
	for _, tag := range splitList(e.Traversals) {
		t, err := pairwise.ParseTraversalOption(tag)
		if err != nil {
			return nil, err
		}
		opts.Traversals = append(opts.Traversals, t)
	}
	for _, tag := range splitList(e.DataLayouts) {
		l, err := pairwise.ParseDataLayout(tag)
		if err != nil {
			return nil, err
		}
		opts.DataLayouts = append(opts.DataLayouts, l)
	}
	for _, tag := range splitList(e.Newton3) {
		n3, err := pairwise.ParseNewton3(tag)
		if err != nil {
			return nil, err
		}
		opts.Newton3 = append(opts.Newton3, n3)
	}
	for _, tag := range splitList(e.CellSizeFactors) {
		csf, err := strconv.ParseFloat(tag, 64)
		if err != nil {
			return nil, pairwise.UnknownOptionError("cell size factor", tag)
		}
		if csf <= 0 {
			return nil, errors.Errorf(
				"cell size factors must be positive, got %g", csf)
		}
		opts.CellSizeFactors = append(opts.CellSizeFactors, csf)
	}
	if len(opts.CellSizeFactors) == 0 {
		opts.CellSizeFactors = []float64{1}
	}

	if len(opts.Containers) == 0 {
		return nil, errors.New("config allows no containers")
	}
	if len(opts.Traversals) == 0 {
		return nil, errors.New("config allows no traversals")
	}
	if len(opts.DataLayouts) == 0 {
		return nil, errors.New("config allows no data layouts")
	}
	if len(opts.Newton3) == 0 {
		return nil, errors.New("config allows no newton3 modes")
	}
	return opts, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
