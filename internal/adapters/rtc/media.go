// Package rtc implements the media session over a pion PeerConnection.
package rtc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/verent/callsig/internal/core"
)

type MediaSession struct {
	pc       *webrtc.PeerConnection
	callID   uuid.UUID
	stop     func() bool
	onClosed func()
}

func DefaultConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

// NewMediaSession builds an audio-only peer connection for one call.
func NewMediaSession(cfg webrtc.Configuration, callID uuid.UUID) (core.MediaSession, error) {
	se := webrtc.SettingEngine{
		LoggerFactory: &loggerFactory{},
	}
	api := webrtc.NewAPI(webrtc.WithSettingEngine(se))
	pc, err := api.NewPeerConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}
	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio); err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("add audio transceiver: %w", err)
	}
	return &MediaSession{pc: pc, callID: callID}, nil
}

// Start wires state callbacks and binds the connection lifetime to ctx.
func (m *MediaSession) Start(ctx context.Context) error {
	m.stop = context.AfterFunc(ctx, m.Close)

	m.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Info().Str("module", "rtc").Str("call_id", m.callID.String()).Str("ice_state", s.String()).Msg("ICE state")
	})

	m.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "rtc").Str("call_id", m.callID.String()).Str("peer_connection_state", s.String()).Msg("Peer state")
		if s == webrtc.PeerConnectionStateFailed ||
			s == webrtc.PeerConnectionStateClosed {
			if m.onClosed != nil {
				m.onClosed()
			}
		}
	})

	return nil
}

// CreateOffer produces the local offer with ICE gathering complete, so the
// SDP sent in the invite carries every candidate.
func (m *MediaSession) CreateOffer() (string, error) {
	offer, err := m.pc.CreateOffer(nil)
	if err != nil {
		return "", fmt.Errorf("create offer: %w", err)
	}
	gatherComplete := webrtc.GatheringCompletePromise(m.pc)
	if err := m.pc.SetLocalDescription(offer); err != nil {
		return "", fmt.Errorf("set local description: %w", err)
	}
	<-gatherComplete
	return m.pc.LocalDescription().SDP, nil
}

// CreateAnswer applies the remote offer and produces the local answer,
// gathering complete.
func (m *MediaSession) CreateAnswer(remoteSDP string) (string, error) {
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: remoteSDP}
	if err := m.pc.SetRemoteDescription(offer); err != nil {
		return "", fmt.Errorf("set remote description: %w", err)
	}
	answer, err := m.pc.CreateAnswer(nil)
	if err != nil {
		return "", fmt.Errorf("create answer: %w", err)
	}
	gatherComplete := webrtc.GatheringCompletePromise(m.pc)
	if err := m.pc.SetLocalDescription(answer); err != nil {
		return "", fmt.Errorf("set local description: %w", err)
	}
	<-gatherComplete
	return m.pc.LocalDescription().SDP, nil
}

func (m *MediaSession) ApplyAnswer(remoteSDP string) error {
	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: remoteSDP}
	return m.pc.SetRemoteDescription(answer)
}

func (m *MediaSession) Close() {
	if m.stop != nil {
		m.stop()
	}
	if m.pc != nil {
		if err := m.pc.Close(); err != nil {
			log.Error().Err(err).Str("module", "rtc").Str("call_id", m.callID.String()).Msg("close error")
		} else {
			log.Info().Str("module", "rtc").Str("call_id", m.callID.String()).Msg("closed")
		}
	}
}

// OnClosed sets the callback fired when the peer connection dies.
func (m *MediaSession) OnClosed(fn func()) { m.onClosed = fn }
