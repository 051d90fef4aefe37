package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iamsmart/masterclass/internal/llm"
	"github.com/iamsmart/masterclass/internal/store"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the progress journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		kind, _ := cmd.Flags().GetString("kind")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		opts := store.QueryOpts{Limit: limit}
		if cmd.Flags().Changed("user") {
			opts.UserID = cfg.UserID
		}
		events, err := st.EventRepo().QueryProgressEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No progress events found.")
			return nil
		}
		fmt.Fprintf(out, "%-6s  %-19s  %-16s  %-20s  %-6s  %-24s  %s\n",
			"Seq", "Timestamp", "User", "Kind", "Day", "Section", "Score")
		fmt.Fprintln(out, strings.Repeat("─", 108))
		for _, e := range events {
			if kind != "" && e.Kind != kind {
				continue
			}
			score := ""
			if e.Correct != 0 || e.Incorrect != 0 {
				score = fmt.Sprintf("%d/%d", e.Correct, e.Correct+e.Incorrect)
			}
			fmt.Fprintf(out, "%-6d  %-19s  %-16s  %-20s  %-6s  %-24s  %s\n",
				e.Sequence,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				clip(e.UserID, 16),
				e.Kind,
				e.Day,
				clip(e.SectionID, 24),
				score,
			)
		}
		return nil
	},
}

var eventsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "List recent tutor LLM requests and their cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		opts := store.QueryOpts{Limit: limit}
		if cmd.Flags().Changed("user") {
			opts.UserID = cfg.UserID
		}
		events, err := st.EventRepo().QueryLLMEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No LLM events found.")
			return nil
		}

		fmt.Fprintf(out, "%-6s  %-19s  %-12s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"Seq", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Fprintln(out, strings.Repeat("─", 100))

		usage := make([]llm.UsageRecord, 0, len(events))
		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Fprintf(out, "%-6d  %-19s  %-12s  %-28s  %-6d  %-6d  %-7d  %s\n",
				e.Sequence,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Purpose,
				clip(e.Model, 28),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
			usage = append(usage, llm.UsageRecord{Model: e.Model, InputTokens: e.InputTokens, OutputTokens: e.OutputTokens})
		}

		usd, unpriced := llm.Spend(usage)
		fmt.Fprintf(out, "\nEstimated spend: $%.4f", usd)
		if unpriced > 0 {
			fmt.Fprintf(out, " (%d requests for unpriced models)", unpriced)
		}
		fmt.Fprintln(out)
		return nil
	},
}

func init() {
	eventsCmd.PersistentFlags().Int("limit", 20, "Maximum number of events to show")
	eventsCmd.Flags().String("kind", "", "Only show events of this kind")
	eventsCmd.AddCommand(eventsLLMCmd)
}

func clip(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
