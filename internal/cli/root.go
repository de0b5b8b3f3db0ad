package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "spinwheel",
		Short: "CLI tool for the spinwheel game server",
		Long: `spinwheel is a CLI tool for interacting with the spinwheel game server.

It can query session state over the JSON API, control the game
(start/pause/resume), watch the live event stream, and join a game as a
player from the terminal.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			client = NewClient(cfg.ServerURL)
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: SPINWHEEL_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	// Add subcommands
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newStateCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newPauseCmd())
	rootCmd.AddCommand(newResumeCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newJoinCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
