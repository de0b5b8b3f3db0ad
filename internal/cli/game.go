package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult
			if err := client.Get("/healthz", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the current session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GameState
			if err := client.Get("/api/v1/game", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show round results for the current game",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GameHistory
			if err := client.Get("/api/v1/game/history", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GameState
			if err := client.Post("/api/v1/game/start", nil, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the round in progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GameState
			if err := client.Post("/api/v1/game/pause", nil, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused round",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GameState
			if err := client.Post("/api/v1/game/resume", nil, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
