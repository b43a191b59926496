package config

import (
	"errors"
	"testing"

	"github.com/verent/callsig/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"token only", Config{ServerURL: "wss://signal.example.com", Token: "tok"}, false},
		{"user and password", Config{ServerURL: "ws://signal.example.com", User: "bob", Password: "pw"}, false},
		{"missing url", Config{Token: "tok"}, true},
		{"http url", Config{ServerURL: "http://signal.example.com", Token: "tok"}, true},
		{"no credential", Config{ServerURL: "wss://signal.example.com"}, true},
		{"both credentials", Config{ServerURL: "wss://signal.example.com", Token: "tok", User: "bob", Password: "pw"}, true},
		{"user without password", Config{ServerURL: "wss://signal.example.com", User: "bob"}, true},
		{"password without user", Config{ServerURL: "wss://signal.example.com", Password: "pw"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, domain.ErrConfigInvalid) {
					t.Fatalf("err = %v, want ErrConfigInvalid", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCredential(t *testing.T) {
	cfg := Config{ServerURL: "wss://signal.example.com", Token: "tok"}
	if _, ok := cfg.Credential().(domain.TokenAuth); !ok {
		t.Fatalf("expected TokenAuth, got %T", cfg.Credential())
	}

	cfg = Config{ServerURL: "wss://signal.example.com", User: "bob", Password: "pw"}
	cred, ok := cfg.Credential().(domain.PasswordAuth)
	if !ok {
		t.Fatalf("expected PasswordAuth, got %T", cfg.Credential())
	}
	if cred.User != "bob" || cred.Password != "pw" {
		t.Fatalf("credential = %+v", cred)
	}
}
