package ghapp

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gh "github.com/google/go-github/v68/github"
)

const jwtTTL = 5 * time.Minute

// Config holds the GitHub App identity and API settings.
type Config struct {
	APIURL         string
	AppID          int64
	InstallationID int64
	KeyFile        string
	UserAgent      string
	Timeout        time.Duration
}

// AppAuth mints installation-scoped clients.
type AppAuth struct {
	config     Config
	httpClient *http.Client
	now        func() time.Time
}

// NewAppAuth creates an AppAuth. The key file is read on every JWT, not here.
func NewAppAuth(config Config) *AppAuth {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AppAuth{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// JWT signs an App JWT (RS256, issuer = app id, valid for five minutes).
// The PEM bytes are zeroed once the key is parsed.
func (a *AppAuth) JWT() (string, error) {
	pemBytes, err := os.ReadFile(a.config.KeyFile)
	if err != nil {
		return "", fmt.Errorf("read app key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	clear(pemBytes)
	if err != nil {
		return "", fmt.Errorf("parse app key: %w", err)
	}

	now := a.now()
	claims := jwt.RegisteredClaims{
		Issuer: strconv.FormatInt(a.config.AppID, 10),
		// Backdated to tolerate clock drift against GitHub.
		IssuedAt:  jwt.NewNumericDate(now.Add(-30 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(jwtTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign app jwt: %w", err)
	}
	return token, nil
}

// InstallationToken exchanges an App JWT for an installation access token.
func (a *AppAuth) InstallationToken(ctx context.Context) (string, error) {
	appJWT, err := a.JWT()
	if err != nil {
		return "", err
	}

	client, err := a.newClient(appJWT)
	if err != nil {
		return "", err
	}

	tok, _, err := client.Apps.CreateInstallationToken(ctx, a.config.InstallationID, nil)
	if err != nil {
		return "", fmt.Errorf("create installation token for %d: %w", a.config.InstallationID, err)
	}
	if tok.GetToken() == "" {
		return "", fmt.Errorf("create installation token for %d: empty token", a.config.InstallationID)
	}
	return tok.GetToken(), nil
}

// Connect returns a Client authenticated as the installation.
func (a *AppAuth) Connect(ctx context.Context) (*Client, error) {
	token, err := a.InstallationToken(ctx)
	if err != nil {
		return nil, err
	}
	client, err := a.newClient(token)
	if err != nil {
		return nil, err
	}
	return &Client{gh: client}, nil
}

func (a *AppAuth) newClient(token string) (*gh.Client, error) {
	client := gh.NewClient(a.httpClient).WithAuthToken(token)

	if a.config.APIURL != "" {
		base, err := parseBaseURL(a.config.APIURL)
		if err != nil {
			return nil, err
		}
		client.BaseURL = base
	}
	if a.config.UserAgent != "" {
		client.UserAgent = a.config.UserAgent
	}
	return client, nil
}
