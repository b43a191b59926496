// Package ws implements the signaling transport over a websocket. Frames
// and lifecycle events are delivered to the handler serially from the read
// pump, one at a time.
package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/verent/callsig/internal/core"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrNotConnected = errors.New("not connected")
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
	sendBuffer       = 32
)

type Transport struct {
	url     string
	handler core.TransportHandler

	mu     sync.RWMutex
	conn   *websocket.Conn
	send   chan []byte
	cancel context.CancelFunc
	closed bool
}

// New builds a transport for the server URL. It satisfies
// core.TransportFactory.
func New(url string, handler core.TransportHandler) core.Transport {
	return &Transport{url: url, handler: handler}
}

// Connect starts the dial in the background. Dial failures reach the
// handler through OnTransportError, success through OnTransportConnected.
func (t *Transport) Connect() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return errors.New("transport already closed")
	}
	if t.conn != nil {
		t.mu.Unlock()
		return errors.New("transport already connected")
	}
	t.mu.Unlock()

	go t.dial()
	return nil
}

func (t *Transport) dial() {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.Dial(t.url, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Str("url", t.url).Msg("dial failed")
		t.handler.OnTransportError(err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		cancel()
		_ = conn.Close()
		return
	}
	t.conn = conn
	t.send = make(chan []byte, sendBuffer)
	t.cancel = cancel
	t.mu.Unlock()

	log.Info().Str("module", "ws").Str("url", t.url).Msg("connected")
	t.handler.OnTransportConnected()

	go t.writePump(ctx, conn)
	go t.readPump(conn)
}

func (t *Transport) writePump(ctx context.Context, conn *websocket.Conn) {
	t.mu.RLock()
	send := t.send
	t.mu.RUnlock()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Msg("writePump ctx done")
			return
		case data, ok := <-send:
			if !ok {
				log.Warn().Str("module", "ws").Msg("writePump channel closed")
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (t *Transport) readPump(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.mu.RLock()
			closed := t.closed
			t.mu.RUnlock()
			if !closed {
				log.Error().Err(err).Str("module", "ws").Msg("readPump read error")
				t.handler.OnTransportError(err)
			}
			t.teardown()
			if !closed {
				t.handler.OnTransportDisconnected()
			}
			return
		}
		t.handler.OnMessage(data)
	}
}

// Send queues one frame. Fire-and-forget: a full buffer fails fast with
// ErrBackpressure instead of blocking the caller.
func (t *Transport) Send(data []byte) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed || t.conn == nil {
		return ErrNotConnected
	}
	select {
	case t.send <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

func (t *Transport) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.conn != nil && !t.closed
}

// Disconnect tears the connection down. Idempotent.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()
	t.teardown()
	log.Info().Str("module", "ws").Msg("closed")
}

func (t *Transport) teardown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	if t.send != nil {
		close(t.send)
		t.send = nil
	}
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
}
