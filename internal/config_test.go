package internal

import (
	"strings"
	"testing"
)

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
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestStorageConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     StorageConfig
		wantErr bool
	}{
		{"empty driver defaults to fs", StorageConfig{Dir: "./data"}, false},
		{"fs without dir", StorageConfig{Driver: StorageFS}, true},
		{"sqlite with path", StorageConfig{Driver: StorageSQLite, SQLitePath: "x.db"}, false},
		{"sqlite without path", StorageConfig{Driver: StorageSQLite, Dir: "./data"}, true},
		{"unknown driver", StorageConfig{Driver: "postgres", Dir: "./data"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNotificationConfig(t *testing.T) {
	cfg := NotificationConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty permission should default: %v", err)
	}
	if cfg.Permission != "granted" {
		t.Errorf("permission = %q, want granted", cfg.Permission)
	}

	cfg = NotificationConfig{Permission: "maybe"}
	if err := cfg.Validate(); err == nil {
		t.Error("unknown permission should fail")
	}
}

func TestExportConfig(t *testing.T) {
	cfg := ExportConfig{Dir: "./exports"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("auto mode with dir should pass: %v", err)
	}
	if cfg.Mode != "auto" {
		t.Errorf("mode = %q, want auto", cfg.Mode)
	}

	cfg = ExportConfig{Mode: "s3", S3: S3Config{Bucket: "b"}}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "incomplete") {
		t.Errorf("incomplete s3 err = %v", err)
	}

	cfg = ExportConfig{Mode: "s3", S3: S3Config{
		Endpoint: "http://localhost:9000", Bucket: "b", AccessKeyID: "id", SecretAccessKey: "secret",
	}}
	if err := cfg.Validate(); err != nil {
		t.Errorf("complete s3 should pass: %v", err)
	}
	if got := cfg.Sink(); got.S3.Bucket != "b" || got.Mode != "s3" {
		t.Errorf("sink = %+v", got)
	}
}

func TestInboxConfig(t *testing.T) {
	cfg := InboxConfig{Enabled: true}
	if err := cfg.Validate(); err == nil {
		t.Error("enabled inbox without dir should fail")
	}
	cfg = InboxConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled inbox should pass: %v", err)
	}
}
