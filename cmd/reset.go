package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iamsmart/masterclass/internal/profile"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset learner data",
	Long:  "Delete a learner's stored profile. The progress journal is kept.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("user") {
			return errors.New("reset needs an explicit --user")
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		err = st.ProfileRepo().Delete(cmd.Context(), cfg.UserID)
		switch {
		case errors.Is(err, profile.ErrNotFound):
			fmt.Fprintf(cmd.OutOrStdout(), "No profile stored for %s.\n", cfg.UserID)
			return nil
		case err != nil:
			return fmt.Errorf("delete profile: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset %s.\n", cfg.UserID)
		return nil
	},
}
