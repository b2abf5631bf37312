package webhook

import "net/http"

// checkRequest applies the transport preconditions that need no body.
// Checks run in a fixed order and the first failure wins: path (404),
// method (405), content type (415), required headers (403).
// It returns 0 when the request may proceed.
func (s *Server) checkRequest(r *http.Request) int {
	if r.URL.Path != s.config.Path {
		return http.StatusNotFound
	}
	if r.Method != http.MethodPost {
		return http.StatusMethodNotAllowed
	}
	if r.Header.Get("Content-Type") != contentTypeJSON {
		return http.StatusUnsupportedMediaType
	}
	if r.Header.Get(s.config.SignatureHeader) == "" || r.Header.Get(s.config.EventHeader) == "" {
		return http.StatusForbidden
	}
	return 0
}
