package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/profile"
	"github.com/iamsmart/masterclass/internal/server"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	Long:  "Show a learner's progress, points and badges. With --all, summarize every stored learner.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		content, err := loadContent(cfg)
		if err != nil {
			return fmt.Errorf("load content: %w", err)
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		out := cmd.OutOrStdout()
		if all, _ := cmd.Flags().GetBool("all"); all {
			list, err := st.ProfileRepo().List(ctx)
			if err != nil {
				return fmt.Errorf("list profiles: %w", err)
			}
			s := server.Summarize(list, content.TotalSections())
			fmt.Fprintf(out, "Learners:          %d\n", s.TotalUsers)
			fmt.Fprintf(out, "Started:           %d\n", s.StartedUsers)
			fmt.Fprintf(out, "Average progress:  %.1f%%\n", s.AverageProgress)
			if len(s.Learners) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintf(out, "%-20s  %-20s  %9s  %6s  %s\n", "User", "Name", "Progress", "Points", "Updated")
				fmt.Fprintln(out, strings.Repeat("─", 80))
			}
			for _, l := range s.Learners {
				fmt.Fprintf(out, "%-20s  %-20s  %8d%%  %6d  %s\n",
					l.UserID, l.Name, l.ProgressPercent, l.Points, l.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		}

		p, err := st.ProfileRepo().Load(ctx, cfg.UserID)
		if errors.Is(err, profile.ErrNotFound) {
			fmt.Fprintf(out, "No progress recorded for %s.\n", cfg.UserID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		printStats(out, content, p)
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("all", false, "Summarize every stored learner")
}

func printStats(w io.Writer, content *curriculum.Catalog, p profile.LearnerProfile) {
	total := content.TotalSections()
	name := p.UserID
	if p.Onboarding != nil && p.Onboarding.Name != "" {
		name = fmt.Sprintf("%s (%s)", p.Onboarding.Name, p.UserID)
	}

	fmt.Fprintf(w, "%s\n", name)
	fmt.Fprintln(w, strings.Repeat("─", 40))
	fmt.Fprintf(w, "Progress:   %d/%d sections (%d%%)\n", len(p.CompletedSections), total, p.ProgressPercent(total))
	fmt.Fprintf(w, "Points:     %d\n", p.Stats.TotalPoints)
	fmt.Fprintf(w, "Correct:    %d\n", p.Stats.TotalCorrect)
	fmt.Fprintf(w, "Incorrect:  %d\n", p.Stats.TotalIncorrect)

	done := p.CompletedSet()
	fmt.Fprintln(w)
	for _, day := range content.Days() {
		sections, _ := content.Day(day)
		n := 0
		for _, s := range sections {
			if done[s.ID] {
				n++
			}
		}
		mark := " "
		if n == len(sections) {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s %-28s %d/%d\n", mark, content.DayTitle(day), n, len(sections))
	}

	fmt.Fprintln(w)
	for _, b := range p.Badges(total) {
		mark := "·"
		if b.Earned {
			mark = "★"
		}
		fmt.Fprintf(w, "%s %-14s %s\n", mark, b.Name, b.Description)
	}
}
