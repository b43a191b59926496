// Package call implements the per-call negotiation state machine on top of
// a media session and the signaling transport.
package call

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/verent/callsig/internal/core"
	"github.com/verent/callsig/internal/domain"
	"github.com/verent/callsig/internal/protocol"
)

// Call pairs one call's signaling state with its media session. The state
// listener (the client) hears every transition.
type Call struct {
	id        uuid.UUID
	sessionID string
	direction domain.Direction
	transport core.Transport
	listener  core.CallStateListener
	media     core.MediaSession

	mu           sync.Mutex
	state        domain.CallState
	callerName   string
	callerNumber string
	destination  string
	remoteSDP    string
	earlyMedia   bool
	audio        bool
	ringtone     string
	ringbackTone string
}

// NewOutgoing builds an outbound call bound to the session and transport it
// was created under. Negotiation starts with Start.
func NewOutgoing(p core.OutgoingCallParams, media core.MediaSession) *Call {
	return &Call{
		id:           p.ID,
		sessionID:    p.SessionID,
		direction:    domain.DirectionOutbound,
		transport:    p.Transport,
		listener:     p.Listener,
		media:        media,
		state:        domain.CallStateNew,
		callerName:   p.CallerName,
		callerNumber: p.CallerNumber,
		destination:  p.Destination,
		audio:        true,
		ringtone:     p.Ringtone,
		ringbackTone: p.RingbackTone,
	}
}

// NewIncoming builds a call pre-populated with the remote offer and caller
// metadata. The observer drives Answer or Hangup.
func NewIncoming(p core.IncomingCallParams, media core.MediaSession) *Call {
	return &Call{
		id:           p.ID,
		sessionID:    p.SessionID,
		direction:    domain.DirectionInbound,
		transport:    p.Transport,
		listener:     p.Listener,
		media:        media,
		state:        domain.CallStateNew,
		callerName:   p.CallerName,
		callerNumber: p.CallerNumber,
		remoteSDP:    p.RemoteSDP,
		audio:        p.Audio,
		ringtone:     p.Ringtone,
		ringbackTone: p.RingbackTone,
	}
}

func (c *Call) ID() uuid.UUID               { return c.id }
func (c *Call) SessionID() string           { return c.sessionID }
func (c *Call) Direction() domain.Direction { return c.direction }
func (c *Call) DestinationNumber() string   { return c.destination }

// Tone paths for the platform's audio layer. Playback is outside this
// package; the call only carries the configuration.
func (c *Call) Ringtone() string     { return c.ringtone }
func (c *Call) RingbackTone() string { return c.ringbackTone }
func (c *Call) AudioEnabled() bool   { return c.audio }

func (c *Call) State() domain.CallState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Call) CallerName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callerName
}

func (c *Call) SetCallerName(name string) {
	c.mu.Lock()
	c.callerName = name
	c.mu.Unlock()
}

func (c *Call) CallerNumber() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callerNumber
}

func (c *Call) SetCallerNumber(number string) {
	c.mu.Lock()
	c.callerNumber = number
	c.mu.Unlock()
}

// Start initiates the outbound negotiation: create the local offer and send
// the invite. Only meaningful for outbound calls.
func (c *Call) Start(ctx context.Context) error {
	if c.direction != domain.DirectionOutbound {
		return fmt.Errorf("call %s: start on inbound call", c.id)
	}
	if err := c.media.Start(ctx); err != nil {
		return fmt.Errorf("media start: %w", err)
	}
	c.media.OnClosed(func() { c.setState(domain.CallStateDone) })

	offer, err := c.media.CreateOffer()
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	c.mu.Lock()
	name, number, dest := c.callerName, c.callerNumber, c.destination
	c.mu.Unlock()
	if err := c.send(&protocol.Envelope{
		JSONRPC: protocol.Version,
		ID:      protocol.NextRequestID(),
		Method:  protocol.MethodInvite,
		Params: map[string]any{
			protocol.ParamSessionID:         c.sessionID,
			protocol.ParamCallID:            c.id.String(),
			protocol.ParamSDP:               offer,
			protocol.ParamCallerName:        name,
			protocol.ParamCallerNumber:      number,
			protocol.ParamDestinationNumber: dest,
		},
	}); err != nil {
		return err
	}
	c.setState(domain.CallStateConnecting)
	return nil
}

// Answer accepts an incoming call: apply the stored remote offer, send the
// local answer back.
func (c *Call) Answer(ctx context.Context) error {
	if c.direction != domain.DirectionInbound {
		return fmt.Errorf("call %s: answer on outbound call", c.id)
	}
	if err := c.media.Start(ctx); err != nil {
		return fmt.Errorf("media start: %w", err)
	}
	c.media.OnClosed(func() { c.setState(domain.CallStateDone) })

	c.mu.Lock()
	offer := c.remoteSDP
	c.mu.Unlock()
	answer, err := c.media.CreateAnswer(offer)
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	if err := c.send(&protocol.Envelope{
		JSONRPC: protocol.Version,
		ID:      protocol.NextRequestID(),
		Method:  protocol.MethodAnswer,
		Params: map[string]any{
			protocol.ParamSessionID: c.sessionID,
			protocol.ParamCallID:    c.id.String(),
			protocol.ParamSDP:       answer,
		},
	}); err != nil {
		return err
	}
	c.setState(domain.CallStateActive)
	return nil
}

// Hangup ends the call from this side.
func (c *Call) Hangup() error {
	err := c.send(&protocol.Envelope{
		JSONRPC: protocol.Version,
		ID:      protocol.NextRequestID(),
		Method:  protocol.MethodBye,
		Params: map[string]any{
			protocol.ParamSessionID: c.sessionID,
			protocol.ParamCallID:    c.id.String(),
		},
	})
	c.media.Close()
	c.setState(domain.CallStateDone)
	return err
}

// Hold asks the server to park the call.
func (c *Call) Hold() error {
	if err := c.sendModify("hold"); err != nil {
		return err
	}
	c.setState(domain.CallStateHeld)
	return nil
}

// Unhold resumes a held call.
func (c *Call) Unhold() error {
	if err := c.sendModify("unhold"); err != nil {
		return err
	}
	c.setState(domain.CallStateActive)
	return nil
}

func (c *Call) sendModify(action string) error {
	return c.send(&protocol.Envelope{
		JSONRPC: protocol.Version,
		ID:      protocol.NextRequestID(),
		Method:  protocol.MethodModify,
		Params: map[string]any{
			protocol.ParamSessionID: c.sessionID,
			protocol.ParamCallID:    c.id.String(),
			protocol.ParamAction:    action,
		},
	})
}

// HandleInboundMessage applies one routed envelope to the negotiation state
// machine. Unexpected methods are ignored.
func (c *Call) HandleInboundMessage(env *protocol.Envelope) {
	switch env.Method {
	case protocol.MethodRinging:
		c.setState(domain.CallStateRinging)
	case protocol.MethodMedia:
		// Early media: the answer SDP arrives before the final answer.
		if sdp, ok := env.StringParam(protocol.ParamSDP); ok && sdp != "" {
			if err := c.media.ApplyAnswer(sdp); err != nil {
				log.Error().Err(err).Str("module", "call").Str("call_id", c.id.String()).Msg("apply early media")
				return
			}
			c.mu.Lock()
			c.earlyMedia = true
			c.mu.Unlock()
		}
	case protocol.MethodAnswer:
		if sdp, ok := env.StringParam(protocol.ParamSDP); ok && sdp != "" {
			if err := c.media.ApplyAnswer(sdp); err != nil {
				log.Error().Err(err).Str("module", "call").Str("call_id", c.id.String()).Msg("apply answer")
				return
			}
		} else {
			c.mu.Lock()
			early := c.earlyMedia
			c.mu.Unlock()
			if !early {
				log.Warn().Str("module", "call").Str("call_id", c.id.String()).Msg("answer without sdp and no early media")
				return
			}
		}
		c.setState(domain.CallStateActive)
	case protocol.MethodBye:
		c.media.Close()
		c.setState(domain.CallStateDone)
	case protocol.MethodModify:
		switch action, _ := env.StringParam(protocol.ParamAction); action {
		case "hold":
			c.setState(domain.CallStateHeld)
		case "unhold", "resume":
			c.setState(domain.CallStateActive)
		}
	default:
		log.Debug().Str("module", "call").Str("call_id", c.id.String()).Str("method", string(env.Method)).Msg("unhandled method")
	}
}

func (c *Call) send(env *protocol.Envelope) error {
	b, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.Method, err)
	}
	if err := c.transport.Send(b); err != nil {
		return fmt.Errorf("send %s: %w", env.Method, err)
	}
	return nil
}

// setState is the single transition point. Transitions out of the terminal
// state are dropped; the listener hears every accepted transition.
func (c *Call) setState(s domain.CallState) {
	c.mu.Lock()
	if c.state == s || c.state.IsTerminal() {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()

	log.Info().Str("module", "call").Str("call_id", c.id.String()).Str("state", s.String()).Msg("state changed")
	if c.listener != nil {
		c.listener.OnCallStateChanged(s, c.id)
	}
}
