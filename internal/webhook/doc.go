// Package webhook implements the signed GitHub webhook endpoint.
//
// The server exposes exactly one route. Every request runs the same
// pipeline, and a failure at any stage ends the exchange before the next
// stage starts:
//
//  1. Gate: path (404), method must be POST (405), Content-Type must be
//     application/json (415), signature and event headers present (403).
//     No body bytes are read yet.
//  2. Body: collected in bounded memory; a declared or running size above
//     max_body_size answers 413 and stops reading.
//  3. Signature: HMAC over the raw bytes, formatted "sha1=<hex>" (or
//     "sha256=<hex>"), compared in constant time. Mismatch answers 403.
//  4. Parse: the body must be JSON (400 otherwise).
//  5. Dispatch: 204 is written, then the event is handed to the
//     subscribers registered for the X-GitHub-Event name. Subscribers run
//     detached from the request; their failures are only logged.
//
// # Security Model
//
//   - Signatures verified with crypto/subtle (constant-time comparison)
//   - Both 403 cases (missing headers, bad signature) look identical to the
//     client: empty body, same status
//   - Body size limits enforced before verification to prevent memory DoS
//   - Request logging excludes payloads; a BLAKE3 digest is logged instead
//
// # Example Usage
//
//	reg := events.NewBuilder().
//		Subscribe("push", "protocol-analysis", pushHandler).
//		Build()
//	disp := events.NewDispatcher(reg, logger)
//
//	server := webhook.New(webhook.Config{
//		Listen:      ":8080",
//		Path:        "/webhook",
//		Secret:      []byte(os.Getenv("XIHI_SECRET")),
//		MaxBodySize: 10000000,
//	}, disp, logger)
//	if err := server.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
package webhook
