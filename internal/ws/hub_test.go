package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/spinwheel-go/internal/model"
	"github.com/mcoot/spinwheel-go/internal/testutil"
)

type HubSuite struct {
	suite.Suite

	hub *Hub
}

func (s *HubSuite) SetupTest() {
	s.hub = NewHub(testutil.NopLogger())
	go s.hub.Run()
	s.T().Cleanup(func() {
		select {
		case <-s.hub.done:
		default:
			s.hub.Close()
		}
	})
}

// attach registers a client built around the hub only; Send and closeSend do
// not touch the connection, so no real socket is needed here.
func (s *HubSuite) attach(connectionID model.ConnectionID) *Client {
	client := newClient(s.hub, nil, nil, connectionID, testutil.NopLogger())
	s.hub.Register(client)
	s.Require().Eventually(func() bool {
		return s.hub.ClientCount() > 0
	}, time.Second, 5*time.Millisecond)
	return client
}

func (s *HubSuite) TestBroadcastReachesAllClients() {
	first := s.attach("conn-1")
	second := s.attach("conn-2")
	s.Require().Eventually(func() bool {
		return s.hub.ClientCount() == 2
	}, time.Second, 5*time.Millisecond)

	s.hub.Broadcast(model.Event{
		Type:      model.EventPlayerJoined,
		Timestamp: time.Now(),
		Payload:   model.PlayerJoinedPayload{Username: "alice"},
	})

	for _, client := range []*Client{first, second} {
		select {
		case data := <-client.send:
			var msg Message
			s.Require().NoError(json.Unmarshal(data, &msg))
			s.Equal(string(model.EventPlayerJoined), msg.Type)
		case <-time.After(time.Second):
			s.FailNow("client did not receive broadcast")
		}
	}
}

func (s *HubSuite) TestUnregisterRemovesClient() {
	client := s.attach("conn-1")

	s.hub.Unregister(client)
	s.Require().Eventually(func() bool {
		return s.hub.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)

	// The outbound channel is closed so the write pump winds down
	_, open := <-client.send
	s.False(open)
}

func (s *HubSuite) TestSendAfterShutdownIsDropped() {
	client := s.attach("conn-1")

	s.hub.Close()
	s.Require().Eventually(func() bool {
		return s.hub.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)

	// A reply racing the shutdown must be dropped, not panic on a closed
	// channel
	s.NotPanics(func() {
		client.Send([]byte(`{"type":"heartbeat_ack"}`))
	})

	_, open := <-client.send
	s.False(open)
}

func (s *HubSuite) TestUnregisterTwiceIsSafe() {
	client := s.attach("conn-1")

	s.hub.Unregister(client)
	s.Require().Eventually(func() bool {
		return s.hub.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)

	s.NotPanics(func() {
		client.closeSend()
		client.Send([]byte("late"))
	})
}

func TestHubSuite(t *testing.T) {
	suite.Run(t, new(HubSuite))
}
