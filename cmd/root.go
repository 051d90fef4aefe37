package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "masterclass",
	Short: "GenAI masterclass for working professionals",
	Long:  "Masterclass is a terminal course that walks learners through a multi-day GenAI curriculum, one section and quiz at a time.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file or DSN (overrides MASTERCLASS_DB and MASTERCLASS_DB_DSN)")
	rootCmd.PersistentFlags().String("user", "", "Learner ID (overrides MASTERCLASS_USER)")
	rootCmd.PersistentFlags().String("content", "", "Content pack JSON file (overrides MASTERCLASS_CONTENT)")
	rootCmd.Flags().String("remote", "", "Profile store URL; progress is kept there instead of the local database")
	rootCmd.Flags().Bool("no-splash", false, "Open the dashboard directly")
	rootCmd.Flags().Bool("no-hints", false, "Disable tutor hints after wrong answers")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(versionCmd)
}
