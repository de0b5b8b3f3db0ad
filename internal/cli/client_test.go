package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ClientSuite struct {
	suite.Suite
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) TestGetDecodesResponse() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodGet, r.Method)
		s.Equal("/api/v1/game", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GameState{Status: "waiting", TotalRounds: 5})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var state GameState
	s.Require().NoError(client.Get("/api/v1/game", &state))
	s.Equal("waiting", state.Status)
	s.Equal(5, state.TotalRounds)
}

func (s *ClientSuite) TestAPIErrorSurfacesCodeAndMessage() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(APIError{Code: "CANNOT_START", Message: "game cannot start right now"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.Post("/api/v1/game/start", nil, nil)
	s.Require().Error(err)
	s.Contains(err.Error(), "CANNOT_START")
	s.Contains(err.Error(), "game cannot start right now")
}

func (s *ClientSuite) TestNonJSONErrorFallsBackToStatus() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.Get("/anything", nil)
	s.Require().Error(err)
	s.Contains(err.Error(), "HTTP 500")
}

func (s *ClientSuite) TestWebSocketURL() {
	s.Equal("ws://localhost:8080/ws", NewClient("http://localhost:8080").WebSocketURL())
	s.Equal("wss://spinwheel.example.com/ws", NewClient("https://spinwheel.example.com/").WebSocketURL())
}
