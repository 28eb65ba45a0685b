package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/gridhmm/internal/grid"
)

func newGenerateCmd(root *rootOptions) *cobra.Command {
	var (
		dim          int
		wallFraction float64
		seed         int64
		out          string
		paint        bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random square map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("dim") {
				cfg.GenerateDimension = &dim
			}
			if cmd.Flags().Changed("wall-fraction") {
				cfg.WallFraction = &wallFraction
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = &seed
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			rng := rand.New(rand.NewSource(cfg.GetSeed()))
			g, err := grid.Generate(cfg.GetGenerateDimension(), cfg.GetWallFraction(), rng)
			if err != nil {
				return err
			}
			if paint {
				g.Paint(rng)
			}

			if out == "" {
				_, err = g.WriteTo(cmd.OutOrStdout())
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create map file: %w", err)
			}
			if _, err := g.WriteTo(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %dx%d map to %s\n", g.Width(), g.Height(), out)
			return nil
		},
	}
	cmd.Flags().IntVar(&dim, "dim", 4, "Side length")
	cmd.Flags().Float64Var(&wallFraction, "wall-fraction", grid.DefaultWallFraction, "Wall probability per cell")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (stdout when empty)")
	cmd.Flags().BoolVar(&paint, "paint", false, "Colour the floor cells instead of leaving them blank")
	return cmd
}
