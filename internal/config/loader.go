package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Environment variables that override file values.
const (
	EnvPort           = "XIHI_WWW_PORT"
	EnvPath           = "XIHI_WWW_PATH"
	EnvSecret         = "XIHI_SECRET"
	EnvMaxBodySize    = "XIHI_MAX_BODY_SIZE"
	EnvKeyFile        = "XIHI_KEYFILE"
	EnvAppID          = "XIHI_APP_ID"
	EnvInstallationID = "XIHI_INSTALLATION_ID"
	EnvLogLevel       = "XIHI_LOG_LEVEL"
	EnvConfigFile     = "XIHI_CONFIG"
)

// Load reads configuration from configPath (optional), applies defaults and
// environment overrides, and validates the result.
// An empty configPath falls back to $XIHI_CONFIG, then to defaults only.
func Load(configPath string) (*Config, error) {
	cfg, err := Read(configPath)
	if err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Read is Load without validation. Used by the doctor to report every
// problem at once instead of the first one.
func Read(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv(EnvConfigFile)
	}

	cfg := &Config{}
	if configPath != "" {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("config file not found: %s\n"+
				"Hint: Check the path or run with --config flag", absPath)
		}
		if info.IsDir() {
			absPath = filepath.Join(absPath, "config.yaml")
		}

		cfg, err = loadConfigFile(absPath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", absPath, err)
		}
		cfg.SourceFile = absPath
	}

	cfg = applyConfigDefaults(cfg)

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfigFile loads and parses a single config file.
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	interpolated := interpolateEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &cfg, nil
}

func applyConfigDefaults(cfg *Config) *Config {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = defaults.Service.LogFormat
	}

	wh, dwh := &cfg.Webhook, defaults.Webhook
	if wh.Listen == "" {
		wh.Listen = dwh.Listen
	}
	if wh.Path == "" {
		wh.Path = dwh.Path
	}
	if wh.SignatureHeader == "" {
		wh.SignatureHeader = dwh.SignatureHeader
	}
	if wh.EventHeader == "" {
		wh.EventHeader = dwh.EventHeader
	}
	if wh.DeliveryHeader == "" {
		wh.DeliveryHeader = dwh.DeliveryHeader
	}
	if wh.Algorithm == "" {
		wh.Algorithm = dwh.Algorithm
	}
	if wh.MaxBodySize == "" {
		wh.MaxBodySize = dwh.MaxBodySize
	}
	if wh.ShutdownTimeout == 0 {
		wh.ShutdownTimeout = dwh.ShutdownTimeout
	}

	gh, dgh := &cfg.GitHub, defaults.GitHub
	if gh.APIURL == "" {
		gh.APIURL = dgh.APIURL
	}
	if gh.AppID == 0 {
		gh.AppID = dgh.AppID
	}
	if gh.InstallationID == 0 {
		gh.InstallationID = dgh.InstallationID
	}
	if gh.UserAgent == "" {
		gh.UserAgent = dgh.UserAgent
	}
	if gh.Timeout == 0 {
		gh.Timeout = dgh.Timeout
	}

	if cfg.Analysis.Dir == "" {
		cfg.Analysis.Dir = defaults.Analysis.Dir
	}
	if cfg.Analysis.ContextLines == 0 {
		cfg.Analysis.ContextLines = defaults.Analysis.ContextLines
	}

	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = defaults.Metrics.Listen
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = defaults.Metrics.Path
	}

	return cfg
}

// applyEnvOverrides lets the process environment win over file values.
func applyEnvOverrides(cfg *Config) error {
	if port, ok := os.LookupEnv(EnvPort); ok && port != "" {
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return fmt.Errorf("%s: invalid port %q", EnvPort, port)
		}
		cfg.Webhook.Listen = ":" + port
	}
	if v, ok := os.LookupEnv(EnvPath); ok && v != "" {
		cfg.Webhook.Path = v
	}
	if v, ok := os.LookupEnv(EnvSecret); ok && v != "" {
		cfg.Webhook.Secret = v
	}
	if v, ok := os.LookupEnv(EnvMaxBodySize); ok && v != "" {
		cfg.Webhook.MaxBodySize = v
	}
	if v, ok := os.LookupEnv(EnvKeyFile); ok && v != "" {
		cfg.GitHub.KeyFile = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.Service.LogLevel = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv(EnvAppID); ok && v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid id %q", EnvAppID, v)
		}
		cfg.GitHub.AppID = id
	}
	if v, ok := os.LookupEnv(EnvInstallationID); ok && v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid id %q", EnvInstallationID, v)
		}
		cfg.GitHub.InstallationID = id
	}
	return nil
}

// IsEnvReference reports whether s contains a ${VAR} reference.
func IsEnvReference(s string) bool {
	return envVarPattern.MatchString(s)
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}
	if cfg.Service.LogFormat != "json" && cfg.Service.LogFormat != "text" {
		return fmt.Errorf("service.log_format must be json or text (got %q)", cfg.Service.LogFormat)
	}

	if cfg.Webhook.Secret == "" {
		return fmt.Errorf("webhook.secret is required (set %s)", EnvSecret)
	}
	if envVarPattern.MatchString(cfg.Webhook.Secret) {
		matches := envVarPattern.FindStringSubmatch(cfg.Webhook.Secret)
		return fmt.Errorf("webhook.secret: environment variable ${%s} is not set", matches[1])
	}
	if !strings.HasPrefix(cfg.Webhook.Path, "/") {
		return fmt.Errorf("webhook.path must start with '/' (got %q)", cfg.Webhook.Path)
	}
	if cfg.Webhook.SignatureHeader == "" || cfg.Webhook.EventHeader == "" {
		return fmt.Errorf("webhook.signature_header and webhook.event_header are required")
	}
	switch cfg.Webhook.Algorithm {
	case "sha1", "sha256":
	default:
		return fmt.Errorf("webhook.algorithm must be sha1 or sha256 (got %q)", cfg.Webhook.Algorithm)
	}
	if _, err := ParseByteSize(cfg.Webhook.MaxBodySize); err != nil {
		return fmt.Errorf("webhook.max_body_size %q: %w", cfg.Webhook.MaxBodySize, err)
	}
	if cfg.Webhook.ShutdownTimeout < 0 {
		return fmt.Errorf("webhook.shutdown_timeout must not be negative")
	}

	if cfg.GitHub.Timeout <= 0 {
		return fmt.Errorf("github.timeout must be positive")
	}
	if cfg.Analysis.ContextLines < 0 {
		return fmt.Errorf("analysis.context_lines must not be negative")
	}

	return nil
}

// ParseByteSize parses size strings like "1MB", "512KB", "10000000" to bytes.
func ParseByteSize(size string) (int64, error) {
	upper := strings.ToUpper(strings.TrimSpace(size))
	multiplier := int64(1)

	switch {
	case strings.HasSuffix(upper, "KB"):
		multiplier = 1024
		upper = strings.TrimSuffix(upper, "KB")
	case strings.HasSuffix(upper, "MB"):
		multiplier = 1024 * 1024
		upper = strings.TrimSuffix(upper, "MB")
	case strings.HasSuffix(upper, "GB"):
		multiplier = 1024 * 1024 * 1024
		upper = strings.TrimSuffix(upper, "GB")
	}

	value, err := strconv.ParseInt(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value: %w", err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("size must be positive")
	}

	result := value * multiplier
	if result/multiplier != value {
		return 0, fmt.Errorf("size too large")
	}
	return result, nil
}
