// Command gridhmm simulates a robot on a coloured grid and recovers its
// position with filtering, smoothing and Viterbi decoding.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/gridhmm/internal/config"
	"github.com/banshee-data/gridhmm/internal/monitoring"
)

const logFileMaxMB = 10

type rootOptions struct {
	configPath string
	logFile    string

	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "gridhmm",
		Short: "Grid-world hidden Markov model experiments",
		Long: `gridhmm walks a simulated robot over a map of coloured floor cells, records
noisy colour readings, and estimates where the robot was with forward
filtering, forward-backward smoothing and Viterbi decoding.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logFile != "" {
				opts.logCloser = monitoring.UseRotatingFile(opts.logFile, logFileMaxMB)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logCloser != nil {
				opts.logCloser.Close()
			}
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a JSON or YAML run configuration")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Also write logs to this rotating file")

	cmd.AddCommand(
		newRunCmd(opts),
		newGenerateCmd(opts),
		newRunsCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig layers the config file over the defaults. Without --config the
// checked-in defaults file is used when the working directory has one.
func (o *rootOptions) loadConfig() (*config.RunConfig, error) {
	cfg := config.Defaults()
	path := o.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigPath); err != nil {
			return cfg, nil
		}
		path = config.DefaultConfigPath
	}
	fileCfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(fileCfg)
	if o.logFile == "" && cfg.GetLogFile() != "" {
		o.logFile = cfg.GetLogFile()
		o.logCloser = monitoring.UseRotatingFile(o.logFile, logFileMaxMB)
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
