// Package protocol implements the JSON-RPC-like signaling envelope: a
// method tag plus optional params, result and error maps.
package protocol

import (
	"encoding/json"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Method is the envelope's method tag.
type Method string

const (
	MethodLogin       Method = "login"
	MethodClientReady Method = "clientReady"
	MethodInvite      Method = "invite"
	MethodAnswer      Method = "answer"
	MethodRinging     Method = "ringing"
	MethodMedia       Method = "media"
	MethodBye         Method = "bye"
	MethodModify      Method = "modify"
)

// Param keys the router and calls inspect.
const (
	ParamCallID            = "callID"
	ParamSDP               = "sdp"
	ParamSessionID         = "sessid"
	ParamCallerName        = "caller_id_name"
	ParamCallerNumber      = "caller_id_number"
	ParamDestinationNumber = "destination_number"
	ParamAction            = "action"
)

const Version = "2.0"

// Envelope is one decoded signaling message. Transient: routed, applied,
// then dropped.
type Envelope struct {
	JSONRPC string         `json:"jsonrpc,omitempty"`
	ID      uint64         `json:"id,omitempty"`
	Method  Method         `json:"method,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
	Result  map[string]any `json:"result,omitempty"`
	Error   map[string]any `json:"error,omitempty"`
}

// Decode parses one raw frame from the transport.
func Decode(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Encode serializes the envelope for the transport.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// StringParam returns a params field as a string.
func (e *Envelope) StringParam(key string) (string, bool) {
	if e.Params == nil {
		return "", false
	}
	s, ok := e.Params[key].(string)
	return s, ok
}

// CallID extracts and parses the call identifier from params.
func (e *Envelope) CallID() (uuid.UUID, bool) {
	s, ok := e.StringParam(ParamCallID)
	if !ok {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// SessionID extracts the session identifier from a result payload.
func (e *Envelope) SessionID() (string, bool) {
	if e.Result == nil {
		return "", false
	}
	s, ok := e.Result[ParamSessionID].(string)
	return s, ok
}

// ErrorInfo extracts a human-readable message and a code from the error
// payload. The code is coerced to a string; missing fields default to
// "Unknown" and "0".
func (e *Envelope) ErrorInfo() (message, code string) {
	message, code = "Unknown", "0"
	if e.Error == nil {
		return
	}
	if m, ok := e.Error["message"].(string); ok {
		message = m
	}
	switch v := e.Error["code"].(type) {
	case string:
		code = v
	case float64:
		code = strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		code = v.String()
	}
	return
}

var requestID atomic.Uint64

// NextRequestID hands out request ids for outbound envelopes.
func NextRequestID() uint64 {
	return requestID.Add(1)
}
