package streamer

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

type Client[T any] struct {
	streamer *Streamer[T]
	input    chan<- *T
	C        <-chan *T
}

func (c *Client[T]) Close() {
	for {
		select {
		case _, ok := <-c.C:
			if !ok {
				return
			}
		case c.streamer.remove <- c:
			return
		case <-c.streamer.done:
		}
	}
}

// Streamer fans values out to every client. A client that falls behind by more than its
// buffer misses values instead of stalling the others. A Streamer runs once.
type Streamer[T any] struct {
	mu        sync.Mutex
	isRunning bool
	clients   map[*Client[T]]bool
	add       chan *Client[T]
	remove    chan *Client[T]
	broadcast chan *T
	stop      chan struct{}
	done      chan struct{}
}

func NewStreamer[T any](buffSize int) *Streamer[T] {
	return &Streamer[T]{
		clients:   make(map[*Client[T]]bool),
		add:       make(chan *Client[T]),
		remove:    make(chan *Client[T]),
		broadcast: make(chan *T, buffSize),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// NewClient returns a client whose channel is already closed if the streamer has stopped.
func (m *Streamer[T]) NewClient(buffSize int) *Client[T] {
	ch := make(chan *T, buffSize)
	c := &Client[T]{
		streamer: m,
		input:    ch,
		C:        ch,
	}
	select {
	case m.add <- c:
	case <-m.done:
		close(ch)
	}
	return c
}

func (m *Streamer[T]) Broadcast(data *T) bool {
	m.mu.Lock()
	running := m.isRunning
	m.mu.Unlock()
	if !running {
		return false
	}
	select {
	case m.broadcast <- data:
		return true
	case <-m.done:
		return false
	}
}

func (m *Streamer[T]) Run(ctx context.Context) {
	m.mu.Lock()
	if m.isRunning {
		m.mu.Unlock()
		return
	}
	m.isRunning = true
	m.mu.Unlock()
	defer m.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case client := <-m.add:
			m.clients[client] = true
		case client := <-m.remove:
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.input)
			}
		case data := <-m.broadcast:
			for client := range m.clients {
				select {
				case client.input <- data:
				default:
					log.Debug("Streamer client is lagging, value dropped")
				}
			}
		}
	}
}

func (m *Streamer[T]) shutdown() {
	m.mu.Lock()
	m.isRunning = false
	m.mu.Unlock()
	for client := range m.clients {
		close(client.input)
	}
	clear(m.clients)
	close(m.done)
}

// Stop ends Run and waits until every client channel is closed.
func (m *Streamer[T]) Stop() bool {
	m.mu.Lock()
	running := m.isRunning
	m.mu.Unlock()
	if !running {
		return false
	}
	select {
	case m.stop <- struct{}{}:
	case <-m.done:
	}
	<-m.done
	return true
}

// Running reports whether Run is active.
func (m *Streamer[T]) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isRunning
}
