package main

import (
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/banshee-data/gridhmm/internal/config"
	"github.com/banshee-data/gridhmm/internal/grid"
	"github.com/banshee-data/gridhmm/internal/monitoring"
)

// worldFlags are shared by every command that needs a map.
type worldFlags struct {
	mapFile      string
	dimension    int
	wallFraction float64
}

func (f *worldFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mapFile, "map", "", "Map file to load (generated when empty)")
	cmd.Flags().IntVar(&f.dimension, "generate", 4, "Side length of a generated square map")
	cmd.Flags().Float64Var(&f.wallFraction, "wall-fraction", grid.DefaultWallFraction, "Wall probability per cell of a generated map")
}

// apply copies the flags the user set over cfg.
func (f *worldFlags) apply(cmd *cobra.Command, cfg *config.RunConfig) {
	if cmd.Flags().Changed("map") {
		cfg.MapFile = &f.mapFile
	}
	if cmd.Flags().Changed("generate") {
		cfg.GenerateDimension = &f.dimension
	}
	if cmd.Flags().Changed("wall-fraction") {
		cfg.WallFraction = &f.wallFraction
	}
}

// loadWorld reads the configured map or generates one from seed.
func loadWorld(cfg *config.RunConfig, seed int64) (*grid.Grid, error) {
	if path := cfg.GetMapFile(); path != "" {
		g, err := grid.Load(path)
		if err != nil {
			return nil, err
		}
		monitoring.Logf("loaded %dx%d map from %s", g.Width(), g.Height(), path)
		return g, nil
	}
	g, err := grid.Generate(cfg.GetGenerateDimension(), cfg.GetWallFraction(), rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	monitoring.Logf("generated %dx%d map with seed %d", g.Width(), g.Height(), seed)
	return g, nil
}
