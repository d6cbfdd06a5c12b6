package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"jiracounter/internal/calendar"
	"jiracounter/internal/config"
	"jiracounter/internal/ingest"
	"jiracounter/internal/jira"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	metricsAsOf   string
	metricsFile   string
	metricsOpen   bool
	metricsCharts bool
)

var metricsCmd = &cobra.Command{
	Use:   "metrics [ISSUE-KEY]",
	Short: "Compute and print the metrics of one issue",
	Example: `  jiracounter metrics PROJ-123
  jiracounter metrics PROJ-123 --as-of 2025-05-30
  jiracounter metrics --file PROJ-123.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && metricsFile == "" {
			return errors.New("an issue key or --file is required")
		}

		asOf := time.Now()
		if metricsAsOf != "" {
			t, err := calendar.ParseInstant(metricsAsOf, clock.Calendar().Location())
			if err != nil {
				return fmt.Errorf("--as-of: %w", err)
			}
			asOf = t
		}

		var dto *jira.IssueDTO
		if metricsFile != "" {
			data, err := os.ReadFile(metricsFile)
			if err != nil {
				return err
			}
			dto = &jira.IssueDTO{}
			if err := json.Unmarshal(data, dto); err != nil {
				return fmt.Errorf("failed to parse %s: %w", metricsFile, err)
			}
		} else {
			if err := cfg.Validate(config.ScopeJira); err != nil {
				return err
			}
			var err error
			dto, err = jira.NewClient(cfg.Jira).GetIssue(cmd.Context(), strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
		}

		issue, rec, err := ingest.ComputeIssue(newCalculator(), *dto, asOf)
		if err != nil {
			return err
		}

		if metricsOpen && cfg.Jira.BaseURL != "" {
			url := strings.TrimRight(cfg.Jira.BaseURL, "/") + "/browse/" + issue.Key
			if err := browser.OpenURL(url); err != nil {
				log.Warn().Err(err).Str("url", url).Msg("Failed to open browser")
			}
		}

		report := ingest.NewIssueReport(issue, rec, asOf)
		if metricsCharts {
			report = report.WithCharts()
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

func init() {
	metricsCmd.Flags().StringVar(&metricsAsOf, "as-of", "", "reference instant (RFC 3339 or YYYY-MM-DD), defaults to now")
	metricsCmd.Flags().StringVar(&metricsFile, "file", "", "read the issue (with expanded changelog) from a JSON file instead of Jira")
	metricsCmd.Flags().BoolVar(&metricsOpen, "open", false, "open the issue in the browser")
	metricsCmd.Flags().BoolVar(&metricsCharts, "charts", false, "include Mermaid charts of the status timeline and category split")
}
