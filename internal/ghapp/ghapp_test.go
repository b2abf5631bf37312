package ghapp

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKey(t *testing.T) (string, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	block := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	path := filepath.Join(t.TempDir(), "app.pem")
	require.NoError(t, os.WriteFile(path, block, 0o600))
	return path, key
}

func TestJWTClaims(t *testing.T) {
	keyFile, key := writeKey(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	auth := NewAppAuth(Config{AppID: 2080, KeyFile: keyFile})
	auth.now = func() time.Time { return now }

	signed, err := auth.JWT()
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(tok *jwt.Token) (any, error) {
		assert.Equal(t, jwt.SigningMethodRS256, tok.Method)
		return &key.PublicKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	require.NoError(t, err)

	assert.Equal(t, "2080", claims.Issuer)
	assert.Equal(t, now.Add(jwtTTL).Unix(), claims.ExpiresAt.Unix())
	assert.True(t, claims.IssuedAt.Before(now))
}

func TestJWTErrors(t *testing.T) {
	_, err := NewAppAuth(Config{KeyFile: filepath.Join(t.TempDir(), "missing.pem")}).JWT()
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not a key"), 0o600))
	_, err = NewAppAuth(Config{KeyFile: bad}).JWT()
	assert.Error(t, err)
}

// fakeGitHub serves the handful of API routes the client uses.
func fakeGitHub(t *testing.T, mux *http.ServeMux) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	auth := NewAppAuth(Config{APIURL: srv.URL, UserAgent: "xihi-test"})
	client, err := auth.newClient("inst-token")
	require.NoError(t, err)
	return srv, &Client{gh: client}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestConnectExchangesInstallationToken(t *testing.T) {
	keyFile, _ := writeKey(t)
	mux := http.NewServeMux()

	mux.HandleFunc("POST /app/installations/20524/access_tokens", func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		assert.True(t, strings.HasPrefix(authz, "Bearer "), "app jwt should be a bearer token")
		assert.Equal(t, 3, strings.Count(strings.TrimPrefix(authz, "Bearer "), ".")+1)
		writeJSON(w, http.StatusCreated, map[string]any{"token": "inst-token"})
	})
	mux.HandleFunc("GET /repos/o/r/contents/README.md", func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.Header.Get("Authorization"), "inst-token"))
		assert.Equal(t, "xihi-test", r.Header.Get("User-Agent"))
		writeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte("hello")),
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	auth := NewAppAuth(Config{
		APIURL:         srv.URL,
		AppID:          2080,
		InstallationID: 20524,
		KeyFile:        keyFile,
		UserAgent:      "xihi-test",
	})

	client, err := auth.Connect(context.Background())
	require.NoError(t, err)

	content, err := client.GetContent(context.Background(), "o", "r", "README.md", "main")
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
}

func TestConnectFailsOnAPIError(t *testing.T) {
	keyFile, _ := writeKey(t)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /app/installations/1/access_tokens", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Bad credentials"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	auth := NewAppAuth(Config{APIURL: srv.URL, AppID: 1, InstallationID: 1, KeyFile: keyFile})
	_, err := auth.Connect(context.Background())
	assert.Error(t, err)
}

func TestGetContent(t *testing.T) {
	def := "struct Foo {\n  int a;\n}\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(def))
	// GitHub wraps base64 content at 60 columns.
	wrapped := encoded[:10] + "\n" + encoded[10:]

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/o/r/contents/protocol/foo.2.def", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc123", r.URL.Query().Get("ref"))
		writeJSON(w, http.StatusOK, map[string]any{"type": "file", "encoding": "base64", "content": wrapped})
	})
	mux.HandleFunc("GET /repos/o/r/contents/protocol/foo.1.def", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
	})
	mux.HandleFunc("GET /repos/o/r/contents/protocol/big.def", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"type": "file", "encoding": "none", "content": ""})
	})
	mux.HandleFunc("GET /repos/o/r/contents/protocol/broken.def", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
	})
	_, client := fakeGitHub(t, mux)
	ctx := context.Background()

	got, err := client.GetContent(ctx, "o", "r", "protocol/foo.2.def", "abc123")
	require.NoError(t, err)
	assert.Equal(t, def, got)

	_, err = client.GetContent(ctx, "o", "r", "protocol/foo.1.def", "abc123")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.GetContent(ctx, "o", "r", "protocol/big.def", "abc123")
	assert.ErrorIs(t, err, ErrUnknownEncoding)

	_, err = client.GetContent(ctx, "o", "r", "protocol/broken.def", "abc123")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestCreateComments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/o/r/commits/abc123/comments", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "commit body", req["body"])
		writeJSON(w, http.StatusCreated, map[string]any{"html_url": "https://github.com/o/r/commit/abc123#c1"})
	})
	mux.HandleFunc("POST /repos/o/r/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pr body", req["body"])
		writeJSON(w, http.StatusCreated, map[string]any{"html_url": "https://github.com/o/r/pull/7#issuecomment-1"})
	})
	_, client := fakeGitHub(t, mux)
	ctx := context.Background()

	url, err := client.CreateCommitComment(ctx, "o", "r", "abc123", "commit body")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/o/r/commit/abc123#c1", url)

	url, err = client.CreateIssueComment(ctx, "o", "r", 7, "pr body")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/o/r/pull/7#issuecomment-1", url)
}

func TestListPullRequestFilesPaginates(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/o/r/pulls/7/files", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			writeJSON(w, http.StatusOK, []map[string]any{
				{"filename": "protocol/c.1.def", "status": "removed"},
				{"filename": "protocol/d.1.def", "status": "renamed"},
			})
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/o/r/pulls/7/files?page=2>; rel="next"`, srvURL))
		writeJSON(w, http.StatusOK, []map[string]any{
			{"filename": "protocol/a.2.def", "status": "added"},
			{"filename": "README.md", "status": "modified"},
		})
	})
	srv, client := fakeGitHub(t, mux)
	srvURL = srv.URL

	changes, err := client.ListPullRequestFiles(context.Background(), "o", "r", 7)
	require.NoError(t, err)
	assert.Equal(t, FileChanges{
		Added:    []string{"protocol/a.2.def"},
		Modified: []string{"README.md"},
		Removed:  []string{"protocol/c.1.def"},
	}, changes)
}

func TestParseBaseURL(t *testing.T) {
	u, err := parseBaseURL("https://ghe.example.com/api/v3")
	require.NoError(t, err)
	assert.Equal(t, "https://ghe.example.com/api/v3/", u.String())

	_, err = parseBaseURL("://bad")
	assert.Error(t, err)
}
