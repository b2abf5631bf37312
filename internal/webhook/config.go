package webhook

import (
	"fmt"

	"github.com/mattjoyce/xihi/internal/config"
)

// FromGlobalConfig converts config.WebhookConfig to webhook.Config.
func FromGlobalConfig(wc config.WebhookConfig) (Config, error) {
	if wc.Secret == "" {
		return Config{}, fmt.Errorf("webhook %q: no secret configured", wc.Path)
	}

	alg := Algorithm(wc.Algorithm)
	if alg == "" {
		alg = SHA1
	}
	if _, ok := alg.newHash(); !ok {
		return Config{}, fmt.Errorf("webhook %q: unsupported algorithm %q", wc.Path, wc.Algorithm)
	}

	maxBodySize := int64(DefaultMaxBodySize)
	if wc.MaxBodySize != "" {
		size, err := config.ParseByteSize(wc.MaxBodySize)
		if err != nil {
			return Config{}, fmt.Errorf("webhook %q: invalid max_body_size %q: %w", wc.Path, wc.MaxBodySize, err)
		}
		maxBodySize = size
	}

	return Config{
		Listen:          wc.Listen,
		Path:            wc.Path,
		Secret:          []byte(wc.Secret),
		SignatureHeader: wc.SignatureHeader,
		EventHeader:     wc.EventHeader,
		DeliveryHeader:  wc.DeliveryHeader,
		Algorithm:       alg,
		MaxBodySize:     maxBodySize,
		ShutdownTimeout: wc.ShutdownTimeout,
	}, nil
}
