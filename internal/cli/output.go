package cli

import (
	"encoding/json"
	"fmt"
	"os"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case GameState:
		o.printGameState(v)
	case GameHistory:
		o.printGameHistory(v)
	case HealthResult:
		fmt.Printf("Server status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printGameState(s GameState) {
	fmt.Printf("Status: %s\n", s.Status)
	fmt.Printf("Round:  %d/%d\n", s.CurrentRound, s.TotalRounds)
	fmt.Printf("Players (%d):\n", len(s.Players))
	for _, p := range s.Players {
		fmt.Printf("  %-20s %d point(s)\n", p.Username, p.Score)
	}
}

func (o *Output) printGameHistory(h GameHistory) {
	if len(h.Rounds) == 0 {
		fmt.Println("No rounds played yet")
		return
	}
	for _, r := range h.Rounds {
		last := ""
		if r.IsLastRound {
			last = " (final round)"
		}
		fmt.Printf("Round %d: %s%s\n", r.RoundNumber, r.Winner.Username, last)
	}
}

// GameState response type (matches API)
type GameState struct {
	Status       string        `json:"status"`
	CurrentRound int           `json:"currentRound"`
	TotalRounds  int           `json:"totalRounds"`
	Players      []PlayerScore `json:"players"`
}

// PlayerScore response type
type PlayerScore struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// RoundResult response type
type RoundResult struct {
	RoundNumber int         `json:"roundNumber"`
	Winner      PlayerScore `json:"winner"`
	IsLastRound bool        `json:"isLastRound"`
}

// GameHistory response type
type GameHistory struct {
	Rounds []RoundResult `json:"rounds"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}
