package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"arcade-auth/internal/domain"
)

const (
	defaultTokenURL  = "https://github.com/login/oauth/access_token"
	defaultEmailsURL = "https://api.github.com/user/emails"
)

var (
	// ErrConfigMissing indica credenciales de OAuth ausentes. Error de
	// deployment, no recuperable en runtime.
	ErrConfigMissing = errors.New("github oauth credentials missing")
	// ErrUpstream indica una respuesta inutilizable del proveedor.
	ErrUpstream = errors.New("github upstream response invalid")
	// ErrUpstreamTimeout indica que el proveedor no respondió a tiempo.
	ErrUpstreamTimeout = errors.New("github upstream timeout")
)

// Client define el contrato contra el proveedor OAuth de GitHub.
type Client interface {
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchEmails(ctx context.Context, accessToken string) ([]domain.UserProfile, error)
}

// HTTPClient implementa Client contra los endpoints reales de GitHub.
type HTTPClient struct {
	tokenURL     string
	emailsURL    string
	clientID     string
	clientSecret string
	client       *http.Client
	logger       *zap.Logger
}

// NewHTTPClient construye un cliente apuntando a los endpoints de OAuth.
func NewHTTPClient(tokenURL, emailsURL, clientID, clientSecret string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	if emailsURL == "" {
		emailsURL = defaultEmailsURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		tokenURL:     strings.TrimRight(tokenURL, "/"),
		emailsURL:    strings.TrimRight(emailsURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// ExchangeCode canjea un authorization code por un access token.
func (c *HTTPClient) ExchangeCode(ctx context.Context, code string) (string, error) {
	// Credenciales validadas antes de armar la URL, no en la capa HTTP.
	if c.clientID == "" || c.clientSecret == "" {
		return "", ErrConfigMissing
	}

	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("client_secret", c.clientSecret)
	params.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", classifyNetErr("token exchange", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: token exchange: read response: %v", ErrUpstream, err)
	}

	if resp.StatusCode >= 400 {
		if c.logger != nil {
			c.logger.Warn("github token endpoint error", zap.Int("status", resp.StatusCode))
		}
		return "", fmt.Errorf("%w: token endpoint status=%d", ErrUpstream, resp.StatusCode)
	}

	var payload map[string]any
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return "", fmt.Errorf("%w: token exchange: unmarshal response: %v", ErrUpstream, err)
	}

	token, ok := payload["access_token"].(string)
	if !ok || token == "" {
		return "", fmt.Errorf("%w: access_token missing or not a string", ErrUpstream)
	}
	return token, nil
}

// FetchEmails obtiene la lista de emails del usuario autenticado.
func (c *HTTPClient) FetchEmails(ctx context.Context, accessToken string) ([]domain.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.emailsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "token "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyNetErr("fetch emails", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch emails: read response: %v", ErrUpstream, err)
	}

	if resp.StatusCode >= 400 {
		if c.logger != nil {
			c.logger.Warn("github emails endpoint error", zap.Int("status", resp.StatusCode))
		}
		return nil, fmt.Errorf("%w: emails endpoint status=%d", ErrUpstream, resp.StatusCode)
	}

	var emails []domain.UserProfile
	if err := json.Unmarshal(respBody, &emails); err != nil {
		return nil, fmt.Errorf("%w: fetch emails: unmarshal response: %v", ErrUpstream, err)
	}
	if len(emails) == 0 {
		return nil, fmt.Errorf("%w: empty email list", ErrUpstream)
	}
	return emails, nil
}

// classifyNetErr separa timeouts del resto de fallas de red para que el
// caller pueda distinguir proveedor lento de proveedor roto.
func classifyNetErr(stage string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %v", ErrUpstreamTimeout, stage, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUpstream, stage, err)
}
