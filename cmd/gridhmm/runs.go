package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/banshee-data/gridhmm/internal/db"
	"github.com/banshee-data/gridhmm/internal/experiment"
)

func newRunsCmd(root *rootOptions) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored runs",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database holding the runs")

	resolvePath := func() (string, error) {
		path := dbPath
		if path == "" {
			cfg, err := root.loadConfig()
			if err != nil {
				return "", err
			}
			path = cfg.GetDatabasePath()
		}
		if path == "" {
			return "", errors.New("no database: pass --db or set database_path")
		}
		return path, nil
	}

	openStore := func() (*db.DB, *db.RunStore, error) {
		path, err := resolvePath()
		if err != nil {
			return nil, nil, err
		}
		dbInst, err := db.OpenAndMigrate(path)
		if err != nil {
			return nil, nil, err
		}
		return dbInst, db.NewRunStore(dbInst), nil
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbInst, store, err := openStore()
			if err != nil {
				return err
			}
			defer dbInst.Close()

			runs, err := store.List(limit)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), table.Row{"id", "name", "created", "grid", "steps", "seed", "filter", "smooth", "viterbi"})
			for _, r := range runs {
				tw.AppendRow(table.Row{
					r.RunID,
					r.Name,
					time.Unix(0, r.CreatedAt).Format(time.RFC3339),
					fmt.Sprintf("%dx%d", r.Width, r.Height),
					r.PathLength,
					r.Seed,
					fmt.Sprintf("%.2f", r.FilterAccuracy),
					fmt.Sprintf("%.2f", r.SmoothAccuracy),
					fmt.Sprintf("%.2f", r.ViterbiAccuracy),
				})
			}
			tw.AppendFooter(table.Row{"", "", "", "", "", "", "", "total", len(runs)})
			tw.Render()
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the step table of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbInst, store, err := openStore()
			if err != nil {
				return err
			}
			defer dbInst.Close()

			run, err := store.Get(args[0])
			if err != nil {
				return err
			}
			res, err := experiment.FromRecord(run)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <run-id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbInst, store, err := openStore()
			if err != nil {
				return err
			}
			defer dbInst.Close()

			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted run %s\n", args[0])
			return nil
		},
	}

	var force int
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bring the run database schema up to date",
		Long: `Applies pending schema migrations. With --force the recorded schema version
is set without running anything, which clears the dirty flag left by a
failed migration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolvePath()
			if err != nil {
				return err
			}
			dbInst, err := db.Open(path)
			if err != nil {
				return err
			}
			defer dbInst.Close()

			if cmd.Flags().Changed("force") {
				err = dbInst.MigrateForce(force)
			} else {
				err = dbInst.MigrateUp()
			}
			if err != nil {
				return err
			}
			version, dirty, err := dbInst.MigrateVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", version, dirty)
			return nil
		},
	}
	migrateCmd.Flags().IntVar(&force, "force", 0, "Record this schema version without running migrations")

	cmd.AddCommand(list, show, rm, migrateCmd)
	return cmd
}
