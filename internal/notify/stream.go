package notify

import (
	"encoding/json"

	"github.com/debemdeboas/inkpot/internal/sse"
)

// StreamSink publishes notifications as JSON to the SSE clients of one
// editor session.
type StreamSink struct {
	clients *sse.SSEClients
	session string
}

func NewStreamSink(clients *sse.SSEClients, session string) *StreamSink {
	return &StreamSink{clients: clients, session: session}
}

func (s *StreamSink) Notify(n Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		return
	}
	s.clients.Broadcast(s.session, string(data))
}
