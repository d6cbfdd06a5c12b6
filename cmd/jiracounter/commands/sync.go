package commands

import (
	"fmt"
	"time"

	"jiracounter/internal/calendar"
	"jiracounter/internal/config"
	"jiracounter/internal/esindex"
	"jiracounter/internal/ingest"
	"jiracounter/internal/jira"
	"jiracounter/internal/syncstate"

	"github.com/spf13/cobra"
)

var (
	syncSince    string
	syncProject  string
	syncRecreate bool
	stateResetAt string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Index metrics of issues updated since the last sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(config.ScopeJira | config.ScopeElastic | config.ScopeSync); err != nil {
			return err
		}

		opts := ingest.Options{Project: syncProject, RecreateIndex: syncRecreate}
		if syncSince != "" {
			t, err := calendar.ParseInstant(syncSince, clock.Calendar().Location())
			if err != nil {
				return fmt.Errorf("--since: %w", err)
			}
			opts.Since = &t
		}

		store, err := syncstate.Open(cfg.StatePath)
		if err != nil {
			return err
		}
		defer store.Close()

		indexer, err := esindex.New(cfg.Elastic)
		if err != nil {
			return err
		}

		svc := ingest.NewService(jira.NewClient(cfg.Jira), newCalculator(), indexer, store, ingest.Config{
			Agent:        cfg.Sync.Agent,
			Workers:      cfg.Sync.Workers,
			BatchSize:    cfg.Sync.BatchSize,
			LookbackDays: cfg.Sync.LookbackDays,
		})
		summary, err := svc.Run(cmd.Context(), opts)
		if summary != nil {
			_ = printJSON(cmd.OutOrStdout(), summary)
		}
		return err
	},
}

var syncStateCmd = &cobra.Command{
	Use:   "sync-state",
	Short: "Inspect or reset the stored last sync dates",
}

var syncStateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the last sync date of every agent",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := syncstate.Open(cfg.StatePath)
		if err != nil {
			return err
		}
		defer store.Close()

		states, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		if states == nil {
			states = []syncstate.State{}
		}
		return printJSON(cmd.OutOrStdout(), states)
	},
}

var syncStateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the last sync date of the configured agent, or set it with --date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := syncstate.Open(cfg.StatePath)
		if err != nil {
			return err
		}
		defer store.Close()

		agent := cfg.Sync.Agent
		if stateResetAt == "" {
			if err := store.Reset(cmd.Context(), agent); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset sync state of %s\n", agent)
			return nil
		}

		at, err := calendar.ParseInstant(stateResetAt, clock.Calendar().Location())
		if err != nil {
			return fmt.Errorf("--date: %w", err)
		}
		if err := store.SetLastSync(cmd.Context(), agent, at, "manual"); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set last sync of %s to %s\n", agent, at.Format(time.RFC3339))
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncSince, "since", "", "sync issues updated since this instant instead of the stored last sync")
	syncCmd.Flags().StringVar(&syncProject, "project", "", "restrict the sync to one project key")
	syncCmd.Flags().BoolVar(&syncRecreate, "recreate-index", false, "delete and recreate the index before syncing")

	syncStateResetCmd.Flags().StringVar(&stateResetAt, "date", "", "set the last sync date instead of clearing it")
	syncStateCmd.AddCommand(syncStateShowCmd, syncStateResetCmd)
}
