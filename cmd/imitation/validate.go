package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the game state machine for consistency",
	Long:  `Assembles the game from the configuration and checks every machine for missing transitions, unknown targets and invalid remaps.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, release, err := offlineRunner(cmd)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		defer release()

		if err := r.Root().Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "state machine is valid")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
