package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"jiracounter/internal/calendar"
	"jiracounter/internal/config"
	"jiracounter/internal/logging"
	"jiracounter/internal/metrics"
	"jiracounter/internal/workflow"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
	clock   *calendar.Clock
	tables  workflow.Tables
	logFile io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "jiracounter",
	Short: "Working-time analytics for Jira issues",
	Long: `jiracounter replays the status history of Jira issues and measures working time:
time since creation, time in the current status, time per category (backlog,
processing, waiting) and backflows, under a business-hours and holiday calendar.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		closer, err := logging.Init(logging.Options{Verbose: verbose})
		if err != nil {
			return err
		}
		logFile = closer

		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		wc, err := calendar.ForCountry(cfg.Work.Country, cfg.Work.Timezone)
		if err != nil {
			return err
		}
		clock = calendar.NewClock(wc)

		tables, err = workflow.Load(cfg.Work.WorkflowFile)
		if err != nil {
			return err
		}

		log.Debug().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("country", cfg.Work.Country).
			Str("timezone", cfg.Work.Timezone).
			Msg("jiracounter starting")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			_ = logFile.Close()
		}
	},
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate)

	rootCmd.AddCommand(serveCmd, metricsCmd, syncCmd, syncStateCmd)
}

func newCalculator() *metrics.Calculator {
	return metrics.NewCalculator(clock, tables.Aliases, tables.Categories).WithLogger(log.Logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
