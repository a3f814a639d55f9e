package secrets

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/mdast/pkg/config"
)

func writeSecret(t *testing.T, dir, name, value string, mode os.FileMode) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(value), mode); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, mode); err != nil {
		t.Fatal(err)
	}
}

func TestEnvProvider(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		secretName string
		envVar     string
		value      string
		wantErr    bool
	}{
		{name: "default prefix", secretName: "redis-password", envVar: "MDAST_SECRET_REDIS_PASSWORD", value: "hunter2"},
		{name: "custom prefix", prefix: "CI_", secretName: "pg-dsn", envVar: "CI_PG_DSN", value: "postgres://x"},
		{name: "underscores", secretName: "git_token", envVar: "MDAST_SECRET_GIT_TOKEN", value: "ghp"},
		{name: "missing", secretName: "absent-key", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envVar != "" {
				t.Setenv(tt.envVar, tt.value)
			}
			p := NewEnvProvider(tt.prefix)

			got, err := p.GetSecret(context.Background(), tt.secretName)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetSecret() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.value {
				t.Errorf("GetSecret() = %q, want %q", got, tt.value)
			}
		})
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "pg-password", "s3cret\n", 0o600)
	writeSecret(t, dir, "read-only", "ro", 0o400)
	writeSecret(t, dir, "open", "visible", 0o644)
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o700); err != nil {
		t.Fatal(err)
	}

	p, err := NewFileProvider(dir)
	if err != nil {
		t.Fatalf("NewFileProvider() error = %v", err)
	}

	tests := []struct {
		name       string
		secretName string
		want       string
		wantErr    string
	}{
		{name: "trimmed", secretName: "pg-password", want: "s3cret"},
		{name: "read only", secretName: "read-only", want: "ro"},
		{name: "insecure permissions", secretName: "open", wantErr: "insecure permissions"},
		{name: "missing", secretName: "absent", wantErr: "not found"},
		{name: "directory", secretName: "nested", wantErr: "not a regular file"},
		{name: "traversal", secretName: "../escape", wantErr: "directory traversal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.GetSecret(context.Background(), tt.secretName)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("GetSecret() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetSecret() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GetSecret() = %q, want %q", got, tt.want)
			}
		})
	}

	if !p.Supports("pg-password") || p.Supports("absent") || p.Supports("nested") {
		t.Error("Supports() mismatch")
	}
}

func TestNewFileProviderErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain")
	writeSecret(t, dir, "plain", "x", 0o600)

	if _, err := NewFileProvider(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
	if _, err := NewFileProvider(file); err == nil {
		t.Error("expected error for a file path")
	}
}

func TestManagerPriority(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "token", "from-file", 0o600)
	t.Setenv("MDAST_SECRET_TOKEN", "from-env")
	t.Setenv("MDAST_SECRET_ONLY_ENV", "env-value")

	fp, err := NewFileProvider(dir)
	if err != nil {
		t.Fatal(err)
	}
	m := NewManager(nil, fp, NewEnvProvider(""))

	if got, err := m.GetSecret(context.Background(), "token"); err != nil || got != "from-file" {
		t.Errorf("GetSecret(token) = %q, %v; want file value", got, err)
	}
	if got, err := m.GetSecret(context.Background(), "only-env"); err != nil || got != "env-value" {
		t.Errorf("GetSecret(only-env) = %q, %v; want env fallback", got, err)
	}
	if _, err := m.GetSecret(context.Background(), "nowhere"); err == nil {
		t.Error("expected error for unknown secret")
	}
}

func TestManagerNoProviders(t *testing.T) {
	m := NewManager(nil)
	_, err := m.GetSecret(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "no provider supports") {
		t.Errorf("GetSecret() error = %v", err)
	}
}

func TestResolveReferences(t *testing.T) {
	t.Setenv("MDAST_SECRET_PG_PASSWORD", "p@ss")
	t.Setenv("MDAST_SECRET_PG_USER", "mdast")
	m := NewManager(nil, NewEnvProvider(""))

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "no references", input: "postgres://localhost/db", want: "postgres://localhost/db"},
		{name: "one reference", input: "${secret:pg-password}", want: "p@ss"},
		{
			name:  "embedded references",
			input: "postgres://${secret:pg-user}:${secret:pg-password}@db/mdast",
			want:  "postgres://mdast:p@ss@db/mdast",
		},
		{name: "unresolved kept", input: "x-${secret:missing}", want: "x-${secret:missing}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ResolveReferences(context.Background(), tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveReferences() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveReferences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveConfig(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "redis-password", "from-file", 0o600)
	t.Setenv("MDAST_SECRET_GIT_TOKEN", "ghp_test")

	cfg := config.Default()
	cfg.Secrets.Dir = dir
	cfg.Cache.Redis.Password = "${secret:redis-password}"
	cfg.Bundle.Git.Auth.Token = "${secret:git-token}"
	cfg.Cache.Postgres.DSN = "postgres://localhost/mdast"

	if err := ResolveConfig(context.Background(), cfg, nil); err != nil {
		t.Fatalf("ResolveConfig() error = %v", err)
	}
	if cfg.Cache.Redis.Password != "from-file" {
		t.Errorf("redis password = %q", cfg.Cache.Redis.Password)
	}
	if cfg.Bundle.Git.Auth.Token != "ghp_test" {
		t.Errorf("git token = %q", cfg.Bundle.Git.Auth.Token)
	}
	if cfg.Cache.Postgres.DSN != "postgres://localhost/mdast" {
		t.Errorf("dsn changed: %q", cfg.Cache.Postgres.DSN)
	}
}

func TestResolveConfigErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Postgres.DSN = "${secret:absent-dsn}"

	err := ResolveConfig(context.Background(), cfg, nil)
	if err == nil || !strings.Contains(err.Error(), "cache.postgres.dsn") {
		t.Fatalf("ResolveConfig() error = %v, want field name", err)
	}
	if cfg.Cache.Postgres.DSN != "${secret:absent-dsn}" {
		t.Errorf("field changed on error: %q", cfg.Cache.Postgres.DSN)
	}

	cfg = config.Default()
	cfg.Secrets.Dir = filepath.Join(t.TempDir(), "missing")
	if err := ResolveConfig(context.Background(), cfg, nil); err != nil {
		t.Errorf("no references should not touch the secrets dir: %v", err)
	}
	cfg.Cache.Redis.Password = "${secret:x}"
	if err := ResolveConfig(context.Background(), cfg, nil); err == nil {
		t.Error("expected error for missing secrets dir")
	}
}
