package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <username>",
		Short: "Join the game as a player and follow it from the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]

			conn, _, err := websocket.DefaultDialer.Dial(client.WebSocketURL(), nil)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer func() { _ = conn.Close() }()

			join, _ := json.Marshal(map[string]any{
				"type": "join_game",
				"data": map[string]string{"username": username},
			})
			if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
				return fmt.Errorf("failed to send join: %w", err)
			}

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
					var event serverEvent
					if err := json.Unmarshal(data, &event); err == nil {
						switch event.Type {
						case "join_game_success":
							fmt.Fprintf(os.Stderr, "Joined as %s\n", username)
							continue
						case "error":
							var e struct {
								Code    string `json:"code"`
								Message string `json:"message"`
							}
							_ = json.Unmarshal(event.Data, &e)
							return fmt.Errorf("%s (%s)", e.Message, e.Code)
						}
					}
					printEvent(out, data)
				case err := <-errCh:
					return fmt.Errorf("connection closed: %w", err)
				case <-interrupt:
					leave, _ := json.Marshal(map[string]any{"type": "leave_game"})
					_ = conn.WriteMessage(websocket.TextMessage, leave)
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return nil
				}
			}
		},
	}
}
