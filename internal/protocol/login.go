package protocol

import (
	"fmt"

	"github.com/verent/callsig/internal/domain"
)

// NewLoginRequest builds the login envelope for the configured credential.
// The switch is exhaustive over the credential union.
func NewLoginRequest(cred domain.Credential) (*Envelope, error) {
	params := map[string]any{}
	switch c := cred.(type) {
	case domain.TokenAuth:
		params["login_token"] = c.Token
	case domain.PasswordAuth:
		params["login"] = c.User
		params["passwd"] = c.Password
	default:
		return nil, fmt.Errorf("unsupported credential %T", cred)
	}
	return &Envelope{
		JSONRPC: Version,
		ID:      NextRequestID(),
		Method:  MethodLogin,
		Params:  params,
	}, nil
}
