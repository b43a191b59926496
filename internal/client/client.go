// Package client owns the connection to the signaling server: transport
// lifecycle, the authentication flow, the one session identifier, the call
// registry, and routing of inbound envelopes.
package client

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/verent/callsig/internal/config"
	"github.com/verent/callsig/internal/core"
	"github.com/verent/callsig/internal/domain"
	"github.com/verent/callsig/internal/protocol"
)

// Client is the signaling control plane. It implements
// core.TransportHandler for the transport's serial callback stream and
// core.CallStateListener for every call it owns.
type Client struct {
	observer   core.Observer
	calls      core.CallFactory
	transports core.TransportFactory
	reg        *registry

	mu        sync.RWMutex
	transport core.Transport
	sessionID string
	cred      domain.Credential
	ringtone  string
	ringback  string
}

func New(observer core.Observer, calls core.CallFactory, transports core.TransportFactory) *Client {
	return &Client{
		observer:   observer,
		calls:      calls,
		transports: transports,
		reg:        newRegistry(),
	}
}

// Connect validates the configuration and opens the transport. Transport
// failures are not caught here; they surface through the observer via the
// transport's error callback.
func (c *Client) Connect(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.transport != nil {
		c.mu.Unlock()
		return nil
	}
	c.cred = cfg.Credential()
	c.ringtone = cfg.Ringtone
	c.ringback = cfg.RingbackTone
	t := c.transports(cfg.ServerURL, c)
	c.transport = t
	c.mu.Unlock()

	log.Info().Str("module", "client").Str("url", cfg.ServerURL).Msg("connecting")
	return t.Connect()
}

// Disconnect tears down the transport and clears the session. Idempotent:
// the observer is notified either way and a second call is side-effect
// free.
func (c *Client) Disconnect() {
	c.mu.Lock()
	t := c.transport
	c.transport = nil
	c.sessionID = ""
	c.mu.Unlock()

	if t != nil {
		t.Disconnect()
	}
	log.Info().Str("module", "client").Msg("disconnected")
	c.observer.OnSocketDisconnected()
}

// IsConnected reflects the transport's live status.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	t := c.transport
	c.mu.RUnlock()
	return t != nil && t.IsConnected()
}

// SessionID returns the current session identifier, or "" before
// authentication completes.
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// NewCall starts an outgoing call. The call identifier is supplied by the
// caller; a duplicate overwrites the registry entry for the previous call.
func (c *Client) NewCall(callerName, callerNumber, destination string, callID uuid.UUID) (core.Call, error) {
	if destination == "" {
		return nil, domain.ErrDestinationRequired
	}
	c.mu.RLock()
	sid := c.sessionID
	t := c.transport
	ringtone, ringback := c.ringtone, c.ringback
	c.mu.RUnlock()
	if sid == "" {
		return nil, domain.ErrSessionRequired
	}
	if t == nil || !t.IsConnected() {
		return nil, domain.ErrSocketNotConnected
	}

	call, err := c.calls.NewOutgoingCall(core.OutgoingCallParams{
		ID:           callID,
		SessionID:    sid,
		Transport:    t,
		Listener:     c,
		CallerName:   callerName,
		CallerNumber: callerNumber,
		Destination:  destination,
		Ringtone:     ringtone,
		RingbackTone: ringback,
	})
	if err != nil {
		return nil, err
	}
	if err := call.Start(context.Background()); err != nil {
		return nil, err
	}
	c.reg.insert(callID, call)
	log.Info().Str("module", "client").Str("call_id", callID.String()).Str("destination", destination).Msg("outgoing call started")
	return call, nil
}

// Call looks up an in-progress call.
func (c *Client) Call(id uuid.UUID) (core.Call, bool) {
	return c.reg.get(id)
}

// Calls returns a snapshot of every in-progress call.
func (c *Client) Calls() []core.Call {
	return c.reg.snapshot()
}

// OnCallStateChanged forwards every call transition to the observer and
// evicts calls that reached the terminal state. This is the registry's only
// removal path.
func (c *Client) OnCallStateChanged(state domain.CallState, callID uuid.UUID) {
	c.observer.OnCallStateUpdated(state, callID)
	if state.IsTerminal() {
		c.reg.remove(callID)
		c.observer.OnRemoteCallEnded(callID)
	}
}

// OnTransportConnected runs the authentication flow: exactly one login
// branch, selected by the credential union.
func (c *Client) OnTransportConnected() {
	c.mu.RLock()
	t := c.transport
	cred := c.cred
	c.mu.RUnlock()
	if t == nil {
		return
	}

	c.observer.OnSocketConnected()

	if cred == nil {
		// Unreachable after Connect's validation; left unauthenticated.
		log.Warn().Str("module", "client").Msg("no credential configured, skipping login")
		return
	}
	env, err := protocol.NewLoginRequest(cred)
	if err != nil {
		c.observer.OnClientError(err)
		return
	}
	b, err := env.Encode()
	if err != nil {
		c.observer.OnClientError(err)
		return
	}
	if err := t.Send(b); err != nil {
		c.observer.OnClientError(&domain.TransportError{Err: err})
		return
	}
	log.Info().Str("module", "client").Msg("login sent")
}

// OnTransportDisconnected clears the session; the identifier does not
// outlive the connection.
func (c *Client) OnTransportDisconnected() {
	c.mu.Lock()
	stale := c.transport == nil
	c.sessionID = ""
	c.mu.Unlock()
	if stale {
		return
	}
	c.observer.OnSocketDisconnected()
}

// OnTransportError forwards transport failures; nothing at this layer
// retries.
func (c *Client) OnTransportError(err error) {
	c.mu.RLock()
	stale := c.transport == nil
	c.mu.RUnlock()
	if stale {
		return
	}
	c.observer.OnClientError(&domain.TransportError{Err: err})
}
