package config

import "time"

// Config represents the complete xihi configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	GitHub   GitHubConfig   `yaml:"github"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	// SourceFile is the YAML file the config was read from, empty when
	// the config came from defaults and environment only.
	SourceFile string `yaml:"-"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// WebhookConfig defines the inbound webhook listener.
type WebhookConfig struct {
	Listen          string        `yaml:"listen"`
	Path            string        `yaml:"path"`
	Secret          string        `yaml:"secret"`
	SignatureHeader string        `yaml:"signature_header"`
	EventHeader     string        `yaml:"event_header"`
	DeliveryHeader  string        `yaml:"delivery_header"`
	Algorithm       string        `yaml:"algorithm"`     // sha1 or sha256
	MaxBodySize     string        `yaml:"max_body_size"` // e.g. "10000000", "10MB"
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// GitHubConfig defines the GitHub App used to read content and post comments.
type GitHubConfig struct {
	APIURL         string        `yaml:"api_url"`
	AppID          int64         `yaml:"app_id"`
	InstallationID int64         `yaml:"installation_id"`
	KeyFile        string        `yaml:"key_file"`
	UserAgent      string        `yaml:"user_agent"`
	Timeout        time.Duration `yaml:"timeout"`
}

// AnalysisConfig controls protocol definition analysis.
type AnalysisConfig struct {
	Dir          string `yaml:"dir"`
	ContextLines int    `yaml:"context_lines"`
}

// MetricsConfig defines the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

// DefaultMaxBodySize is the body ceiling applied when none is configured.
const DefaultMaxBodySize = "10000000"

// Defaults returns a Config with the stock settings.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "xihi",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Webhook: WebhookConfig{
			Listen:          ":8080",
			Path:            "/webhook",
			SignatureHeader: "X-Hub-Signature",
			EventHeader:     "X-GitHub-Event",
			DeliveryHeader:  "X-GitHub-Delivery",
			Algorithm:       "sha1",
			MaxBodySize:     DefaultMaxBodySize,
			ShutdownTimeout: 5 * time.Second,
		},
		GitHub: GitHubConfig{
			APIURL:         "https://api.github.com/",
			AppID:          2080,
			InstallationID: 20524,
			UserAgent:      "Xihi [Integration 2080]",
			Timeout:        5 * time.Second,
		},
		Analysis: AnalysisConfig{
			Dir:          "protocol/",
			ContextLines: 3,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9090",
			Path:    "/metrics",
		},
	}
}
