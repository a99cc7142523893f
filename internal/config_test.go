package internal

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Figma.Token = "figd_secret"
	cfg.Figma.FileKey = "abc123"
	return cfg
}

func TestDefaultConfigNeedsFigmaCredentials(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("defaults without figma credentials should fail validation")
	}
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("config with figma credentials should pass: %v", err)
	}
}

func TestGitHubConfig_Optional(t *testing.T) {
	cfg := GitHubConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty github config should pass: %v", err)
	}
	if cfg.Settings() != nil {
		t.Error("empty github config should yield nil settings")
	}
}

func TestGitHubConfig_PartialFails(t *testing.T) {
	cfg := GitHubConfig{Repository: "acme/icons"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("repository without token should fail")
	}
	if !strings.Contains(err.Error(), "together") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGitHubConfig_Settings(t *testing.T) {
	cfg := GitHubConfig{Repository: "acme/icons", Token: "ghp_0123456789abcdefghij"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid github config should pass: %v", err)
	}
	st := cfg.Settings()
	if st == nil || st.Repository != "acme/icons" {
		t.Errorf("settings = %+v", st)
	}
}

func TestGitHubConfig_InvalidCoordinate(t *testing.T) {
	cfg := GitHubConfig{Repository: "not-a-repo", Token: "ghp_0123456789abcdefghij"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid repository coordinate should fail")
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
