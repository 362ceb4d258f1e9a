package internal

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Auth.AuthEnabled() {
		t.Error("auth should be disabled by default")
	}
	if cfg.App.HTTP.Address() != ":8080" {
		t.Errorf("address = %q", cfg.App.HTTP.Address())
	}
}

func TestHTTPConfigRejectsBadPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := NewDefaultConfig()
		cfg.App.HTTP.Port = port
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d accepted", port)
		}
	}
}

func TestDiaryAndSQLitePathsRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Diary.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty diary path accepted")
	}

	cfg = NewDefaultConfig()
	cfg.SQLite.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty sqlite path accepted")
	}
}

func TestAuthConfigModes(t *testing.T) {
	cases := []struct {
		name    string
		auth    AuthConfig
		wantErr bool
		enabled bool
	}{
		{"disabled", AuthConfig{Mode: AuthModeDisabled}, false, false},
		{"empty mode normalises to disabled", AuthConfig{}, false, false},
		{"token with secret", AuthConfig{Mode: AuthModeToken, Token: "s3cret"}, false, true},
		{"token without secret", AuthConfig{Mode: AuthModeToken}, true, false},
		{"unknown mode", AuthConfig{Mode: "oauth"}, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.auth.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err == nil && tc.auth.AuthEnabled() != tc.enabled {
				t.Errorf("AuthEnabled = %v, want %v", tc.auth.AuthEnabled(), tc.enabled)
			}
		})
	}
}

func TestAuthConfigTokenErrorMentionsMode(t *testing.T) {
	auth := AuthConfig{Mode: AuthModeToken}
	err := auth.Validate()
	if err == nil || !strings.Contains(err.Error(), "token") {
		t.Errorf("err = %v", err)
	}
}
