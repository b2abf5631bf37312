package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaultsFromEnvironment(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv(EnvSecret, "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Webhook.Secret)
	assert.Equal(t, ":8080", cfg.Webhook.Listen)
	assert.Equal(t, "/webhook", cfg.Webhook.Path)
	assert.Equal(t, "X-Hub-Signature", cfg.Webhook.SignatureHeader)
	assert.Equal(t, "X-GitHub-Event", cfg.Webhook.EventHeader)
	assert.Equal(t, "sha1", cfg.Webhook.Algorithm)
	assert.Equal(t, DefaultMaxBodySize, cfg.Webhook.MaxBodySize)
	assert.Equal(t, int64(2080), cfg.GitHub.AppID)
	assert.Equal(t, "protocol/", cfg.Analysis.Dir)
	assert.Empty(t, cfg.SourceFile)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvSecret, "env-secret")
	t.Setenv(EnvPort, "3000")
	t.Setenv(EnvPath, "/hooks/github")
	t.Setenv(EnvMaxBodySize, "2MB")
	t.Setenv(EnvKeyFile, "/keys/app.pem")
	t.Setenv(EnvAppID, "42")
	t.Setenv(EnvInstallationID, "77")
	t.Setenv(EnvLogLevel, "DEBUG")

	path := writeConfig(t, `
webhook:
  listen: ":9999"
  path: /from-file
  secret: file-secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Webhook.Listen)
	assert.Equal(t, "/hooks/github", cfg.Webhook.Path)
	assert.Equal(t, "env-secret", cfg.Webhook.Secret)
	assert.Equal(t, "2MB", cfg.Webhook.MaxBodySize)
	assert.Equal(t, "/keys/app.pem", cfg.GitHub.KeyFile)
	assert.Equal(t, int64(42), cfg.GitHub.AppID)
	assert.Equal(t, int64(77), cfg.GitHub.InstallationID)
	assert.Equal(t, "debug", cfg.Service.LogLevel)
	assert.Equal(t, path, cfg.SourceFile)
}

func TestLoadFileWithInterpolation(t *testing.T) {
	t.Setenv(EnvSecret, "")
	t.Setenv("TEST_HOOK_SECRET", "interpolated")

	path := writeConfig(t, `
service:
  log_level: warn
  log_format: text
webhook:
  secret: ${TEST_HOOK_SECRET}
  algorithm: sha256
  signature_header: X-Hub-Signature-256
  shutdown_timeout: 2s
github:
  timeout: 10s
metrics:
  enabled: true
  listen: 127.0.0.1:9191
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "interpolated", cfg.Webhook.Secret)
	assert.Equal(t, "sha256", cfg.Webhook.Algorithm)
	assert.Equal(t, "X-Hub-Signature-256", cfg.Webhook.SignatureHeader)
	assert.Equal(t, 2*time.Second, cfg.Webhook.ShutdownTimeout)
	assert.Equal(t, 10*time.Second, cfg.GitHub.Timeout)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9191", cfg.Metrics.Listen)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "text", cfg.Service.LogFormat)
}

func TestLoadDirectoryUsesConfigYAML(t *testing.T) {
	t.Setenv(EnvSecret, "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("webhook:\n  secret: x\n"), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.SourceFile)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		yaml string
	}{
		{name: "missing secret", yaml: "service:\n  name: x\n"},
		{name: "unresolved secret", yaml: "webhook:\n  secret: ${XIHI_TEST_UNSET_VAR}\n"},
		{name: "bad path", yaml: "webhook:\n  secret: x\n  path: hook\n"},
		{name: "bad algorithm", yaml: "webhook:\n  secret: x\n  algorithm: md5\n"},
		{name: "bad size", yaml: "webhook:\n  secret: x\n  max_body_size: lots\n"},
		{name: "bad log level", yaml: "service:\n  log_level: loud\nwebhook:\n  secret: x\n"},
		{name: "bad port", env: map[string]string{EnvPort: "http"}, yaml: "webhook:\n  secret: x\n"},
		{name: "bad app id", env: map[string]string{EnvAppID: "abc"}, yaml: "webhook:\n  secret: x\n"},
		{name: "malformed yaml", yaml: "webhook: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvSecret, "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestReadSkipsValidation(t *testing.T) {
	t.Setenv(EnvSecret, "")

	cfg, err := Read(writeConfig(t, "webhook:\n  path: hook\n  algorithm: md5\n"))
	require.NoError(t, err)
	assert.Equal(t, "hook", cfg.Webhook.Path)
	assert.Equal(t, "md5", cfg.Webhook.Algorithm)
	assert.Empty(t, cfg.Webhook.Secret)
	assert.Equal(t, ":8080", cfg.Webhook.Listen)
}

func TestIsEnvReference(t *testing.T) {
	assert.True(t, IsEnvReference("${XIHI_SECRET}"))
	assert.True(t, IsEnvReference("prefix-${A}"))
	assert.False(t, IsEnvReference("plain"))
	assert.False(t, IsEnvReference("$XIHI_SECRET"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestInterpolateEnv(t *testing.T) {
	tests := []struct {
		name  string
		input string
		env   map[string]string
		want  string
	}{
		{
			name:  "simple replacement",
			input: "secret: ${XIHI_TEST_A}",
			env:   map[string]string{"XIHI_TEST_A": "abc"},
			want:  "secret: abc",
		},
		{
			name:  "multiple vars",
			input: "${XIHI_TEST_A}:${XIHI_TEST_B}",
			env:   map[string]string{"XIHI_TEST_A": "a", "XIHI_TEST_B": "b"},
			want:  "a:b",
		},
		{
			name:  "undefined var unchanged",
			input: "key: ${XIHI_TEST_UNDEFINED}",
			want:  "key: ${XIHI_TEST_UNDEFINED}",
		},
		{
			name:  "no vars",
			input: "plain text",
			want:  "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.want, interpolateEnv(tt.input))
		})
	}
}

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"10000000", 10000000, false},
		{"1KB", 1024, false},
		{"512kb", 512 * 1024, false},
		{"10MB", 10 * 1024 * 1024, false},
		{"1GB", 1024 * 1024 * 1024, false},
		{" 64 ", 64, false},
		{"0", 0, true},
		{"-1", 0, true},
		{"ten", 0, true},
		{"", 0, true},
		{"9223372036854775807GB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseByteSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
