package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/banshee-data/gridhmm/internal/db"
	"github.com/banshee-data/gridhmm/internal/experiment"
	"github.com/banshee-data/gridhmm/internal/metrics"
)

type runOptions struct {
	world      worldFlags
	name       string
	seed       int64
	length     int
	dbPath     string
	plotDir    string
	reportPath string
	jsonOut    bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate a walk and run filtering, smoothing and Viterbi on it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiment(cmd, root, opts)
		},
	}
	opts.world.register(cmd)
	cmd.Flags().StringVar(&opts.name, "name", "", "Label stored with the run")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Random seed for painting, walking and sensing")
	cmd.Flags().IntVar(&opts.length, "length", 10, "Number of steps to simulate")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite database to store the run in")
	cmd.Flags().StringVar(&opts.plotDir, "plots", "", "Directory for PNG belief plots")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "Path for an HTML chart page")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the full result as JSON instead of tables")
	return cmd
}

func runExperiment(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	opts.world.apply(cmd, cfg)
	if cmd.Flags().Changed("seed") {
		cfg.Seed = &opts.seed
	}
	if cmd.Flags().Changed("length") {
		cfg.PathLength = &opts.length
	}
	if cmd.Flags().Changed("db") {
		cfg.DatabasePath = &opts.dbPath
	}
	if cmd.Flags().Changed("plots") {
		cfg.PlotDir = &opts.plotDir
	}
	if cmd.Flags().Changed("report") {
		cfg.ReportPath = &opts.reportPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	world, err := loadWorld(cfg, cfg.GetSeed())
	if err != nil {
		return err
	}
	runner := experiment.NewRunner(metrics.New())
	res, err := runner.Run(world, experiment.Config{
		Name:       opts.name,
		PathLength: cfg.GetPathLength(),
		Seed:       cfg.GetSeed(),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if path := cfg.GetDatabasePath(); path != "" {
		id, err := storeResult(path, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "stored run %s in %s\n", id, path)
	}
	if dir := cfg.GetPlotDir(); dir != "" {
		files, err := res.WritePlots(dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %d plots to %s\n", len(files), dir)
	}
	if path := cfg.GetReportPath(); path != "" {
		if err := writeReport(path, res); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote report to %s\n", path)
	}

	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printResult(out, res)
	return nil
}

func storeResult(path string, res *experiment.Result) (string, error) {
	dbInst, err := db.OpenAndMigrate(path)
	if err != nil {
		return "", err
	}
	defer dbInst.Close()

	rec, err := res.Record()
	if err != nil {
		return "", err
	}
	if err := db.NewRunStore(dbInst).Insert(rec); err != nil {
		return "", err
	}
	return rec.RunID, nil
}

func writeReport(path string, res *experiment.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := res.WritePage(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newTable(out io.Writer, header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(header)
	return tw
}

func mark(ok bool) string {
	if ok {
		return text.FgGreen.Sprint("✓")
	}
	return text.FgRed.Sprint("✗")
}

func printResult(out io.Writer, res *experiment.Result) {
	fmt.Fprintf(out, "%s\n", res.Map)

	steps := newTable(out, table.Row{"t", "true", "colour", "seen", "filter", "p", "smooth", "p", "viterbi"})
	steps.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	for _, s := range res.Steps {
		steps.AppendRow(table.Row{
			s.T,
			s.TrueState,
			s.TrueColor,
			s.Observed,
			fmt.Sprintf("%v %s", s.FilterBest, mark(s.FilterBest == s.TrueState)),
			fmt.Sprintf("%.3f", s.Filtered.At(s.TrueState)),
			fmt.Sprintf("%v %s", s.SmoothBest, mark(s.SmoothBest == s.TrueState)),
			fmt.Sprintf("%.3f", s.Smoothed.At(s.TrueState)),
			fmt.Sprintf("%v %s", s.ViterbiState, mark(s.ViterbiState == s.TrueState)),
		})
	}
	steps.Render()

	sum := newTable(out, table.Row{"algorithm", "accuracy", "mean p(truth)"})
	sum.AppendRows([]table.Row{
		{"filter", fmt.Sprintf("%.2f", res.Summary.FilterAccuracy), fmt.Sprintf("%.3f", res.Summary.FilterTruthMass)},
		{"smooth", fmt.Sprintf("%.2f", res.Summary.SmoothAccuracy), fmt.Sprintf("%.3f", res.Summary.SmoothTruthMass)},
		{"viterbi", fmt.Sprintf("%.2f", res.Summary.ViterbiAccuracy), ""},
	})
	sum.AppendFooter(table.Row{"sensor hits", fmt.Sprintf("%.2f", res.Summary.SensorHitRate), ""})
	sum.Render()
}
