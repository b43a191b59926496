package domain

// Credential is the login identity decided once at configuration time.
// Exactly one of the two variants exists per session; the marker method
// keeps the set closed so login construction can switch exhaustively.
type Credential interface {
	isCredential()
}

// TokenAuth authenticates with a bearer token.
type TokenAuth struct {
	Token string
}

func (TokenAuth) isCredential() {}

// PasswordAuth authenticates with a user/password pair.
type PasswordAuth struct {
	User     string
	Password string
}

func (PasswordAuth) isCredential() {}
