package main

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/verent/callsig/internal/core"
	"github.com/verent/callsig/internal/domain"
)

// logObserver reports every client notification to the process log. The
// REST surface drives accept/reject; this observer just keeps the record.
type logObserver struct{}

func (logObserver) OnSocketConnected() {
	log.Info().Str("module", "observer").Msg("socket connected")
}

func (logObserver) OnSocketDisconnected() {
	log.Info().Str("module", "observer").Msg("socket disconnected")
}

func (logObserver) OnClientError(err error) {
	log.Error().Err(err).Str("module", "observer").Msg("client error")
}

func (logObserver) OnClientReady() {
	log.Info().Str("module", "observer").Msg("ready for calls")
}

func (logObserver) OnSessionUpdated(sessionID string) {
	log.Info().Str("module", "observer").Str("session_id", sessionID).Msg("session updated")
}

func (logObserver) OnIncomingCall(call core.Call) {
	log.Info().Str("module", "observer").
		Str("call_id", call.ID().String()).
		Str("caller_name", call.CallerName()).
		Str("caller_number", call.CallerNumber()).
		Msg("incoming call")
}

func (logObserver) OnCallStateUpdated(state domain.CallState, callID uuid.UUID) {
	log.Info().Str("module", "observer").Str("call_id", callID.String()).Str("state", state.String()).Msg("call state")
}

func (logObserver) OnRemoteCallEnded(callID uuid.UUID) {
	log.Info().Str("module", "observer").Str("call_id", callID.String()).Msg("call ended")
}
