package call

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/verent/callsig/internal/core"
)

// Factory implements core.CallFactory over a media session constructor.
// Keeping the constructor injected keeps the media stack out of this
// package; cmd wires the real one, tests wire a fake.
type Factory struct {
	NewMedia func(callID uuid.UUID) (core.MediaSession, error)
}

func (f *Factory) NewOutgoingCall(p core.OutgoingCallParams) (core.Call, error) {
	media, err := f.NewMedia(p.ID)
	if err != nil {
		return nil, fmt.Errorf("media session: %w", err)
	}
	return NewOutgoing(p, media), nil
}

func (f *Factory) NewIncomingCall(p core.IncomingCallParams) (core.Call, error) {
	media, err := f.NewMedia(p.ID)
	if err != nil {
		return nil, fmt.Errorf("media session: %w", err)
	}
	return NewIncoming(p, media), nil
}
