// Package sse provides Server-Sent Events client management for real-time communication.
package sse

import (
	"sync"
)

type Client struct {
	Msg     chan string
	Session string
}

func NewClient(session string) *Client {
	return &Client{
		Msg:     make(chan string, 8),
		Session: session,
	}
}

type SSEClients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	close(client.Msg)
}

// DeleteSession disconnects every client listening on session.
func (s *SSEClients) DeleteSession(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		if client.Session == session {
			delete(s.clients, client)
			close(client.Msg)
		}
	}
}

// Broadcast sends msg to every client of session. Slow clients miss messages
// instead of blocking the sender.
func (s *SSEClients) Broadcast(session string, msg string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		if client.Session == session {
			select {
			case client.Msg <- msg:
			default:
			}
		}
	}
}

func (s *SSEClients) Count(session string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for client := range s.clients {
		if client.Session == session {
			n++
		}
	}
	return n
}
