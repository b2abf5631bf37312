// Package doctor validates xihi configuration and its GitHub App setup.
package doctor

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/xihi/internal/config"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor validates a configuration.
type Doctor struct {
	cfg *config.Config
}

// New creates a Doctor for a config read with config.Read.
func New(cfg *config.Config) *Doctor {
	return &Doctor{cfg: cfg}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.validateService(r)
	d.validateWebhook(r)
	d.validateGitHub(r)
	d.validateAnalysis(r)
	d.validateMetrics(r)
	d.warnWeakAlgorithm(r)
	d.warnPlaintextSecret(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) validateService(r *Result) {
	switch d.cfg.Service.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		d.addError(r, "service", "service.log_level",
			fmt.Sprintf("unknown log level %q", d.cfg.Service.LogLevel))
	}
	if f := d.cfg.Service.LogFormat; f != "json" && f != "text" {
		d.addError(r, "service", "service.log_format",
			fmt.Sprintf("log format must be json or text (got %q)", f))
	}
}

func (d *Doctor) validateWebhook(r *Result) {
	wh := d.cfg.Webhook

	switch {
	case wh.Secret == "":
		d.addError(r, "webhook", "webhook.secret",
			fmt.Sprintf("secret is required (set %s)", config.EnvSecret))
	case config.IsEnvReference(wh.Secret):
		d.addError(r, "webhook", "webhook.secret",
			fmt.Sprintf("secret references an unset environment variable: %s", wh.Secret))
	}

	if !strings.HasPrefix(wh.Path, "/") {
		d.addError(r, "webhook", "webhook.path",
			fmt.Sprintf("path must start with '/' (got %q)", wh.Path))
	}
	if _, _, err := net.SplitHostPort(wh.Listen); err != nil {
		d.addError(r, "webhook", "webhook.listen",
			fmt.Sprintf("invalid listen address %q: %v", wh.Listen, err))
	}
	if wh.SignatureHeader == "" {
		d.addError(r, "webhook", "webhook.signature_header", "signature header is required")
	}
	if wh.EventHeader == "" {
		d.addError(r, "webhook", "webhook.event_header", "event header is required")
	}
	if wh.Algorithm != "sha1" && wh.Algorithm != "sha256" {
		d.addError(r, "webhook", "webhook.algorithm",
			fmt.Sprintf("algorithm must be sha1 or sha256 (got %q)", wh.Algorithm))
	}
	if _, err := config.ParseByteSize(wh.MaxBodySize); err != nil {
		d.addError(r, "webhook", "webhook.max_body_size",
			fmt.Sprintf("invalid size %q: %v", wh.MaxBodySize, err))
	}
}

func (d *Doctor) validateGitHub(r *Result) {
	g := d.cfg.GitHub

	if g.AppID <= 0 {
		d.addError(r, "github", "github.app_id",
			fmt.Sprintf("app id is required (set %s)", config.EnvAppID))
	}
	if g.InstallationID <= 0 {
		d.addError(r, "github", "github.installation_id",
			fmt.Sprintf("installation id is required (set %s)", config.EnvInstallationID))
	}

	if g.KeyFile == "" {
		d.addError(r, "github", "github.key_file",
			fmt.Sprintf("private key file is required (set %s)", config.EnvKeyFile))
		return
	}
	info, err := os.Stat(g.KeyFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		d.addError(r, "github", "github.key_file",
			fmt.Sprintf("private key file %q does not exist", g.KeyFile))
	case err != nil:
		d.addError(r, "github", "github.key_file",
			fmt.Sprintf("cannot stat private key file %q: %v", g.KeyFile, err))
	case info.IsDir():
		d.addError(r, "github", "github.key_file",
			fmt.Sprintf("private key path %q is a directory", g.KeyFile))
	case info.Mode().Perm()&0o077 != 0:
		d.addWarning(r, "github", "github.key_file",
			fmt.Sprintf("private key file %q is readable by group or others (mode %o)", g.KeyFile, info.Mode().Perm()))
	}
}

func (d *Doctor) validateAnalysis(r *Result) {
	if d.cfg.Analysis.ContextLines < 0 {
		d.addError(r, "analysis", "analysis.context_lines", "context lines must not be negative")
	}
	if d.cfg.Analysis.Dir == "" {
		d.addWarning(r, "analysis", "analysis.dir", "empty dir analyzes every added file in the repository")
	}
}

func (d *Doctor) validateMetrics(r *Result) {
	if !d.cfg.Metrics.Enabled {
		return
	}
	if !strings.HasPrefix(d.cfg.Metrics.Path, "/") {
		d.addError(r, "metrics", "metrics.path",
			fmt.Sprintf("path must start with '/' (got %q)", d.cfg.Metrics.Path))
	}
	if samePort(d.cfg.Metrics.Listen, d.cfg.Webhook.Listen) {
		d.addWarning(r, "metrics", "metrics.listen",
			fmt.Sprintf("metrics listener %q collides with webhook listener %q", d.cfg.Metrics.Listen, d.cfg.Webhook.Listen))
	}
}

func (d *Doctor) warnWeakAlgorithm(r *Result) {
	if d.cfg.Webhook.Algorithm == "sha1" {
		d.addWarning(r, "webhook", "webhook.algorithm",
			"sha1 signatures are accepted; switch the sender to X-Hub-Signature-256 and sha256 when possible")
	}
}

// warnPlaintextSecret re-reads the source file without interpolation to
// tell a literal secret from a ${VAR} reference.
func (d *Doctor) warnPlaintextSecret(r *Result) {
	if d.cfg.SourceFile == "" {
		return
	}
	data, err := os.ReadFile(d.cfg.SourceFile)
	if err != nil {
		return
	}

	var raw struct {
		Webhook struct {
			Secret string `yaml:"secret"`
		} `yaml:"webhook"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return
	}
	if raw.Webhook.Secret != "" && !config.IsEnvReference(raw.Webhook.Secret) {
		d.addWarning(r, "webhook", "webhook.secret",
			fmt.Sprintf("secret is stored in plaintext in %s; use ${%s} instead", d.cfg.SourceFile, config.EnvSecret))
	}
}

// samePort reports whether two listen addresses would contend for a port.
func samePort(a, b string) bool {
	hostA, portA, errA := net.SplitHostPort(a)
	hostB, portB, errB := net.SplitHostPort(b)
	if errA != nil || errB != nil || portA != portB {
		return false
	}
	if hostA == "" || hostB == "" || hostA == "0.0.0.0" || hostB == "0.0.0.0" {
		return true
	}
	return hostA == hostB
}
