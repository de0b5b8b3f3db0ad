package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream live game events",
		Long:  "Connects to the server's WebSocket endpoint and prints every broadcast event until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, _, err := websocket.DefaultDialer.Dial(client.WebSocketURL(), nil)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer func() { _ = conn.Close() }()

			fmt.Fprintf(os.Stderr, "Connected to %s\n", client.WebSocketURL())

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)

			events := make(chan []byte)
			errCh := make(chan error, 1)
			go func() {
				for {
					_, data, err := conn.ReadMessage()
					if err != nil {
						errCh <- err
						return
					}
					events <- data
				}
			}()

			out := NewOutput(cfg.Output)
			for {
				select {
				case data := <-events:
					printEvent(out, data)
				case err := <-errCh:
					return fmt.Errorf("connection closed: %w", err)
				case <-interrupt:
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return nil
				}
			}
		},
	}
}

// serverEvent mirrors the wire envelope
type serverEvent struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func printEvent(out *Output, data []byte) {
	if cfg.Output == "json" {
		fmt.Println(string(data))
		return
	}

	var event serverEvent
	if err := json.Unmarshal(data, &event); err != nil {
		fmt.Println(string(data))
		return
	}

	ts := time.UnixMilli(event.Timestamp).Format("15:04:05")
	fmt.Printf("[%s] %-26s %s\n", ts, event.Type, compact(event.Data))
}

func compact(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	return string(data)
}
