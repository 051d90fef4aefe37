package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iamsmart/masterclass/internal/curriculum"
	"github.com/iamsmart/masterclass/internal/quiz"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Inspect and validate content packs",
}

var contentValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a content pack (default: the embedded pack)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			c   *curriculum.Catalog
			err error
		)
		if len(args) == 1 {
			c, err = loadPackFile(args[0])
		} else {
			c, err = curriculum.Default()
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s: %d days, %d sections\n", c.Course(), c.Version(), len(c.Days()), c.TotalSections())
		warnings := c.Lint(quiz.PassThreshold)
		for _, w := range warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		if strict, _ := cmd.Flags().GetBool("strict"); strict && len(warnings) > 0 {
			return fmt.Errorf("%d warnings", len(warnings))
		}
		return nil
	},
}

var contentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List days and sections",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		c, err := loadContent(cfg)
		if err != nil {
			return err
		}
		printContent(cmd, c)
		return nil
	},
}

func init() {
	contentValidateCmd.Flags().Bool("strict", false, "Fail when the pack has warnings")
	contentCmd.AddCommand(contentValidateCmd)
	contentCmd.AddCommand(contentListCmd)
}

func printContent(cmd *cobra.Command, c *curriculum.Catalog) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", c.Course(), c.Version())
	for _, day := range c.Days() {
		sections, _ := c.Day(day)
		fmt.Fprintf(out, "\n%s  %s\n", day, c.DayTitle(day))
		for i, s := range sections {
			quizInfo := "no quiz"
			if n := len(c.Questions(s.ID)); n > 0 {
				quizInfo = fmt.Sprintf("%d questions", n)
			}
			fmt.Fprintf(out, "  %2d. %-40s %-14s %s\n", i+1, s.Title, s.ID, quizInfo)
		}
	}
	if keys := c.SurveyKeys(); len(keys) > 0 {
		fmt.Fprintln(out)
		for _, key := range keys {
			form, _ := c.Survey(key)
			fmt.Fprintf(out, "survey %-18s %d questions\n", key, len(form.Questions))
		}
	}
}
