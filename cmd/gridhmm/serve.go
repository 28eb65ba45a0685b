package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/banshee-data/gridhmm/internal/api"
	"github.com/banshee-data/gridhmm/internal/db"
	"github.com/banshee-data/gridhmm/internal/metrics"
	"github.com/banshee-data/gridhmm/internal/monitoring"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		world  worldFlags
		listen string
		dbPath string
		seed   int64
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run API, charts and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			world.apply(cmd, cfg)
			if cmd.Flags().Changed("listen") {
				cfg.Listen = &listen
			}
			if cmd.Flags().Changed("db") {
				cfg.DatabasePath = &dbPath
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = &seed
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			g, err := loadWorld(cfg, cfg.GetSeed())
			if err != nil {
				return err
			}
			path := cfg.GetDatabasePath()
			if path == "" {
				path = ":memory:"
				monitoring.Logf("no database_path set, runs are kept in memory")
			}
			dbInst, err := db.OpenAndMigrate(path)
			if err != nil {
				return err
			}
			defer dbInst.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := api.NewServer(db.NewRunStore(dbInst), g, metrics.New())
			return server.Start(ctx, cfg.GetListen())
		},
	}
	world.register(cmd)
	cmd.Flags().StringVar(&listen, "listen", ":8080", "Listen address")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database for runs (in memory when empty)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for the generated default map")
	return cmd
}
