package client

import (
	"github.com/rs/zerolog/log"

	"github.com/verent/callsig/internal/core"
	"github.com/verent/callsig/internal/domain"
	"github.com/verent/callsig/internal/protocol"
)

// OnMessage dispatches one inbound envelope in the order the transport
// delivers them. A malformed or unexpected envelope never aborts the
// stream: everything asynchronous is forwarded to the observer or dropped.
func (c *Client) OnMessage(raw []byte) {
	c.mu.RLock()
	stale := c.transport == nil
	c.mu.RUnlock()
	if stale {
		return
	}

	env, err := protocol.Decode(raw)
	if err != nil {
		log.Warn().Err(err).Str("module", "client.router").Msg("bad envelope")
		return
	}

	// Error payloads are a side notification: report, then keep going.
	// Error and result are mutually exclusive in practice but the router
	// does not assume it.
	if env.Error != nil {
		message, code := env.ErrorInfo()
		log.Warn().Str("module", "client.router").Str("code", code).Str("message", message).Msg("server error")
		c.observer.OnClientError(&domain.ServerError{Message: message, Code: code})
	}

	// Any result payload terminates dispatch; a session identifier inside
	// it updates the session.
	if env.Result != nil {
		if sid, ok := env.SessionID(); ok {
			c.mu.Lock()
			c.sessionID = sid
			c.mu.Unlock()
			log.Info().Str("module", "client.router").Str("session_id", sid).Msg("session updated")
			c.observer.OnSessionUpdated(sid)
		}
		return
	}

	// Route to the owning call first, unconditionally: a single envelope
	// may both update a call and trigger a method-level action below.
	if id, ok := env.CallID(); ok {
		if call, found := c.reg.get(id); found {
			call.HandleInboundMessage(env)
		}
	}

	switch env.Method {
	case protocol.MethodClientReady:
		log.Info().Str("module", "client.router").Msg("client ready")
		c.observer.OnClientReady()
	case protocol.MethodInvite:
		c.admitIncoming(env)
	default:
		// Reserved for extension.
	}
}

// admitIncoming handles an incoming call offer. Malformed invites and
// invites arriving with no session or transport are dropped silently;
// best-effort at this layer.
func (c *Client) admitIncoming(env *protocol.Envelope) {
	sdp, ok := env.StringParam(protocol.ParamSDP)
	if !ok || sdp == "" {
		log.Debug().Str("module", "client.router").Msg("invite without sdp dropped")
		return
	}
	id, ok := env.CallID()
	if !ok {
		log.Debug().Str("module", "client.router").Msg("invite with malformed call id dropped")
		return
	}

	c.mu.RLock()
	sid := c.sessionID
	t := c.transport
	ringtone, ringback := c.ringtone, c.ringback
	c.mu.RUnlock()
	if sid == "" || t == nil {
		log.Debug().Str("module", "client.router").Str("call_id", id.String()).Msg("invite before session dropped")
		return
	}

	callerName, _ := env.StringParam(protocol.ParamCallerName)
	callerNumber, _ := env.StringParam(protocol.ParamCallerNumber)

	call, err := c.calls.NewIncomingCall(core.IncomingCallParams{
		ID:           id,
		SessionID:    sid,
		Transport:    t,
		Listener:     c,
		RemoteSDP:    sdp,
		CallerName:   callerName,
		CallerNumber: callerNumber,
		Audio:        true,
		Ringtone:     ringtone,
		RingbackTone: ringback,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "client.router").Str("call_id", id.String()).Msg("incoming call construction failed")
		return
	}
	c.reg.insert(id, call)
	log.Info().Str("module", "client.router").Str("call_id", id.String()).Str("caller", callerNumber).Msg("incoming call")
	c.observer.OnIncomingCall(call)
}
