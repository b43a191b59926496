package core

import (
	"context"

	"github.com/google/uuid"

	"github.com/verent/callsig/internal/domain"
	"github.com/verent/callsig/internal/protocol"
)

// Transport is the persistent bidirectional channel to the signaling
// server. Owned by the client; the client must Disconnect() it.
// Connect returns immediately; dial results arrive via the handler.
type Transport interface {
	Connect() error
	Disconnect()
	Send(data []byte) error
	IsConnected() bool
}

// TransportHandler receives the transport's lifecycle and inbound frames.
// Callbacks are delivered serially, one at a time.
type TransportHandler interface {
	OnTransportConnected()
	OnTransportDisconnected()
	OnTransportError(err error)
	OnMessage(raw []byte)
}

// TransportFactory opens a transport for a server URL with the given
// handler already registered.
type TransportFactory func(url string, handler TransportHandler) Transport

// Observer receives forwarded lifecycle and call-state notifications.
type Observer interface {
	OnSocketConnected()
	OnSocketDisconnected()
	OnClientError(err error)
	OnClientReady()
	OnSessionUpdated(sessionID string)
	OnIncomingCall(call Call)
	OnCallStateUpdated(state domain.CallState, callID uuid.UUID)
	OnRemoteCallEnded(callID uuid.UUID)
}

// CallStateListener is notified on every call state transition. The client
// is the sole listener for every call it owns.
type CallStateListener interface {
	OnCallStateChanged(state domain.CallState, callID uuid.UUID)
}

// Call is one call's negotiation state machine. The registry holds a shared
// reference; the call owns its internal negotiation and reports transitions
// through its listener.
type Call interface {
	ID() uuid.UUID
	SessionID() string
	State() domain.CallState
	Direction() domain.Direction

	CallerName() string
	SetCallerName(name string)
	CallerNumber() string
	SetCallerNumber(number string)
	DestinationNumber() string

	// Start initiates the outbound negotiation sequence.
	Start(ctx context.Context) error
	// Answer accepts an incoming call.
	Answer(ctx context.Context) error
	Hangup() error
	Hold() error
	Unhold() error

	// HandleInboundMessage applies one routed envelope to the call's own
	// negotiation state machine.
	HandleInboundMessage(env *protocol.Envelope)
}

// OutgoingCallParams carries everything a factory needs to build an
// outbound call bound to the current session and transport.
type OutgoingCallParams struct {
	ID           uuid.UUID
	SessionID    string
	Transport    Transport
	Listener     CallStateListener
	CallerName   string
	CallerNumber string
	Destination  string
	Ringtone     string
	RingbackTone string
}

// IncomingCallParams carries the remote offer and caller metadata for an
// admitted invite.
type IncomingCallParams struct {
	ID           uuid.UUID
	SessionID    string
	Transport    Transport
	Listener     CallStateListener
	RemoteSDP    string
	CallerName   string
	CallerNumber string
	Audio        bool
	Ringtone     string
	RingbackTone string
}

// CallFactory builds calls. The client consumes it as a capability so the
// media stack stays out of the routing core.
type CallFactory interface {
	NewOutgoingCall(p OutgoingCallParams) (Call, error)
	NewIncomingCall(p IncomingCallParams) (Call, error)
}

// MediaSession abstracts the per-call media/ICE negotiation.
// Owned by the call; the call must Close() it.
type MediaSession interface {
	// Start configures internal callbacks and binds the session lifetime to ctx.
	Start(ctx context.Context) error
	// Close should stop all underlying media resources.
	Close()
	// CreateOffer produces the local SDP offer, gathering complete.
	CreateOffer() (string, error)
	// CreateAnswer applies the remote offer and produces the local answer.
	CreateAnswer(remoteSDP string) (string, error)
	// ApplyAnswer applies the remote answer to a previously sent offer.
	ApplyAnswer(remoteSDP string) error
	// OnClosed sets a callback for media teardown.
	OnClosed(func())
}
