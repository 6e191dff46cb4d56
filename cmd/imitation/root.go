package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/imitation/orchestrate/bus"
	"github.com/tailored-agentic-units/imitation/orchestrate/config"
	"github.com/tailored-agentic-units/imitation/runner"
)

var rootCmd = &cobra.Command{
	Use:   "imitation",
	Short: "Imitation runs the Pepper imitation game",
	Long: `Imitation drives a robot through a song-based imitation game: the robot shows
a pose at each section of the song and the user copies it. The game is a
hierarchical state machine talking to the robot over a message bus.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("log-format")
		verbose, _ := cmd.Flags().GetBool("verbose")

		logger, err := newLogger(format, verbose, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")
}

// loadConfig reads --config when given and applies --bus when the command
// defines it.
func loadConfig(cmd *cobra.Command) (*runner.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *runner.Config
	if path == "" {
		defaults := runner.DefaultConfig()
		cfg = &defaults
	} else {
		loaded, err := runner.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if f := cmd.Flags().Lookup("bus"); f != nil && f.Changed {
		cfg.Bus.Transport = f.Value.String()
	}
	return cfg, nil
}

// offlineRunner assembles the game on an in-memory bus so structure can be
// inspected without reaching the robot.
func offlineRunner(cmd *cobra.Command) (*runner.Runner, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	b := bus.NewMemoryBus(config.DefaultMemoryConfig(), nil)
	r, err := runner.New(cfg, runner.WithBus(b), runner.WithLogger(slog.Default()))
	if err != nil {
		b.Close()
		return nil, nil, err
	}

	return r, func() { b.Close() }, nil
}
