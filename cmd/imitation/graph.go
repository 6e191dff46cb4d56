package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the game state machine structure",
	Long:  `Assembles the game from the configuration and prints every machine with its states, transitions, remaps and terminal outcomes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, release, err := offlineRunner(cmd)
		if err != nil {
			return err
		}
		defer release()

		fmt.Fprint(cmd.OutOrStdout(), r.Describe())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
