package webhook

import (
	"crypto/hmac"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// ErrSignatureMismatch is the only error verification returns, whatever
// the cause, so callers cannot tell which check failed.
var ErrSignatureMismatch = errors.New("webhook verification failed")

// Sign computes "<alg>=" + hex(HMAC(secret, body)), the format GitHub
// sends in X-Hub-Signature (sha1) and X-Hub-Signature-256 (sha256).
func Sign(alg Algorithm, secret, body []byte) string {
	newHash, ok := alg.newHash()
	if !ok {
		return ""
	}
	mac := hmac.New(newHash, secret)
	mac.Write(body)
	return string(alg) + "=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks header against the signature of body.
//
// The comparison is over the full formatted strings using
// crypto/subtle: a length difference rejects immediately (the length is
// fixed by the algorithm, so it leaks nothing), otherwise every byte pair
// is examined regardless of where the first difference is.
func VerifySignature(alg Algorithm, secret, body []byte, header string) error {
	if len(secret) == 0 || header == "" {
		return ErrSignatureMismatch
	}

	expected := Sign(alg, secret, body)
	if expected == "" {
		return ErrSignatureMismatch
	}

	if subtle.ConstantTimeCompare([]byte(expected), []byte(header)) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}
