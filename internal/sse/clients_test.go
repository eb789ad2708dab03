package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastReachesOnlyItsSession(t *testing.T) {
	clients := NewSSEClients()
	a := NewClient("a")
	b := NewClient("b")
	clients.Add(a)
	clients.Add(b)

	clients.Broadcast("a", "hello")

	require.Len(t, a.Msg, 1)
	assert.Equal(t, "hello", <-a.Msg)
	assert.Len(t, b.Msg, 0)
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	clients := NewSSEClients()
	c := &Client{Msg: make(chan string), Session: "s"}
	clients.Add(c)

	// Unbuffered and nobody reading: must not block.
	clients.Broadcast("s", "dropped")
}

func TestDeleteClosesChannelOnce(t *testing.T) {
	clients := NewSSEClients()
	c := NewClient("s")
	clients.Add(c)

	clients.Delete(c)
	clients.Delete(c)

	_, open := <-c.Msg
	assert.False(t, open)
	assert.Equal(t, 0, clients.Count("s"))
}

func TestDeleteSession(t *testing.T) {
	clients := NewSSEClients()
	c1 := NewClient("s")
	c2 := NewClient("s")
	other := NewClient("t")
	clients.Add(c1)
	clients.Add(c2)
	clients.Add(other)

	clients.DeleteSession("s")

	assert.Equal(t, 0, clients.Count("s"))
	assert.Equal(t, 1, clients.Count("t"))
	_, open := <-c1.Msg
	assert.False(t, open)
}
