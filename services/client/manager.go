package client

import (
	"context"
	"sync"
	"time"

	"webchat/pkg/logger"
	"webchat/pkg/metrics"
	"webchat/services/chat"
	"webchat/services/transport"
)

// Factory builds a Client for a session
type Factory func(session chat.Session) *Client

// Manager keeps one Client per signed-in user
type Manager struct {
	clients map[chat.ID]*Client
	factory Factory
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewManager(factory Factory) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		clients: make(map[chat.ID]*Client),
		factory: factory,
		ctx:     ctx,
		cancel:  cancel,
	}

	go m.run()
	return m
}

// run publishes the client count until the manager is closed
func (m *Manager) run() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.SetClientsActive(m.Len())
		case <-m.ctx.Done():
			return
		}
	}
}

// Get returns the user's Client, creating and connecting it on first use.
// A client whose socket gave up is replaced, which is what a page refresh
// asks for.
func (m *Manager) Get(userID chat.ID) (*Client, bool) {
	m.mu.RLock()
	c, ok := m.clients[userID]
	m.mu.RUnlock()
	if ok && c.SocketState() != transport.StateExhausted {
		return c, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, exists := m.clients[userID]; exists {
		if existing.SocketState() != transport.StateExhausted {
			return existing, false
		}
		logger.WithFields(map[string]any{
			"user_id":   int64(userID),
			"client_id": existing.ID,
		}).Info("Replacing exhausted client")
		go existing.Close(context.Background())
	}

	c = m.factory(chat.Session{UserID: userID})
	m.clients[userID] = c
	c.Connect()

	logger.WithFields(map[string]any{
		"user_id":       int64(userID),
		"client_id":     c.ID,
		"total_clients": len(m.clients),
	}).Info("Client registered")
	metrics.SetClientsActive(len(m.clients))
	return c, true
}

// Lookup returns the user's Client without creating one
func (m *Manager) Lookup(userID chat.ID) (*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[userID]
	return c, ok
}

// Remove closes and forgets the user's Client
func (m *Manager) Remove(ctx context.Context, userID chat.ID) {
	m.mu.Lock()
	c, ok := m.clients[userID]
	delete(m.clients, userID)
	n := len(m.clients)
	m.mu.Unlock()

	if !ok {
		return
	}
	c.Close(ctx)
	metrics.SetClientsActive(n)
	logger.WithFields(map[string]any{
		"user_id":       int64(userID),
		"client_id":     c.ID,
		"total_clients": n,
	}).Info("Client removed")
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// States counts clients per socket state
func (m *Manager) States() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]int, 5)
	for _, c := range m.clients {
		out[c.SocketState().String()]++
	}
	return out
}

// Close logs every client out and stops the manager
func (m *Manager) Close(ctx context.Context) {
	m.cancel()

	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[chat.ID]*Client)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			c.Close(ctx)
		}(c)
	}
	wg.Wait()

	metrics.SetClientsActive(0)
	logger.WithField("closed", len(clients)).Info("Client manager stopped")
}
