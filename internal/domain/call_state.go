// Package domain contains entity without logic, just meta-data
package domain

import "fmt"

// CallState tracks one call through its signaling lifecycle.
type CallState int

const (
	// CallStateNew indicates the call has been created but no signaling sent.
	CallStateNew CallState = iota
	// CallStateConnecting indicates the invite has been sent or received.
	CallStateConnecting
	// CallStateRinging indicates the remote side is alerting.
	CallStateRinging
	// CallStateActive indicates the call is answered and media is flowing.
	CallStateActive
	// CallStateHeld indicates the call is on hold.
	CallStateHeld
	// CallStateDone indicates the call is over. Terminal.
	CallStateDone
)

func (s CallState) String() string {
	switch s {
	case CallStateNew:
		return "new"
	case CallStateConnecting:
		return "connecting"
	case CallStateRinging:
		return "ringing"
	case CallStateActive:
		return "active"
	case CallStateHeld:
		return "held"
	case CallStateDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// IsTerminal reports whether no further signaling can happen for the call.
func (s CallState) IsTerminal() bool {
	return s == CallStateDone
}

// Direction indicates which side originated the call.
type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)
