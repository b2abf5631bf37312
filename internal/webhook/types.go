package webhook

import (
	"crypto/sha1"
	"crypto/sha256"
	"hash"
	"time"

	"github.com/mattjoyce/xihi/internal/events"
)

// EventDispatcher hands verified events to subscribers without blocking.
type EventDispatcher interface {
	Dispatch(ev events.Event) int
}

// Algorithm names the HMAC digest used for signatures.
type Algorithm string

const (
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
)

func (a Algorithm) newHash() (func() hash.Hash, bool) {
	switch a {
	case SHA1:
		return sha1.New, true
	case SHA256:
		return sha256.New, true
	default:
		return nil, false
	}
}

// Config holds webhook listener configuration.
type Config struct {
	// Listen is the address to bind, e.g. ":8080".
	Listen string

	// Path is the only URL path accepted; everything else is 404.
	Path string

	// Secret is the shared HMAC key. Read-only after startup.
	Secret []byte

	// SignatureHeader carries "<algorithm>=<hex>", e.g. X-Hub-Signature.
	SignatureHeader string

	// EventHeader names the event type, e.g. X-GitHub-Event.
	EventHeader string

	// DeliveryHeader carries the sender's delivery id (optional on requests).
	DeliveryHeader string

	Algorithm Algorithm

	// MaxBodySize is the body ceiling in bytes (default: 10,000,000).
	MaxBodySize int64

	ShutdownTimeout time.Duration
}

// Default values
const (
	DefaultMaxBodySize     = 10 * 1000 * 1000
	DefaultSignatureHeader = "X-Hub-Signature"
	DefaultEventHeader     = "X-GitHub-Event"
	DefaultDeliveryHeader  = "X-GitHub-Delivery"
	DefaultShutdownTimeout = 5 * time.Second
)

const contentTypeJSON = "application/json"
