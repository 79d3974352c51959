package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/afocalor/rair-dapp/internal/client/models"
	"github.com/afocalor/rair-dapp/internal/common"
)

// HTTPClient talks to the backend REST API. It is safe for concurrent use;
// the session token may be swapped by the refresher while requests are in
// flight.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu          sync.RWMutex
	accessToken string
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *HTTPClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// envelope is the common response shape. Success is a pointer because the
// admin check answers with success=false on a valid request.
type envelope struct {
	Success    *bool           `json:"success"`
	Message    string          `json:"message"`
	Response   string          `json:"response"`
	Token      string          `json:"token"`
	User       *models.User    `json:"user"`
	Data       json.RawMessage `json:"data"`
	URL        string          `json:"url"`
	ExpiresIn  int64           `json:"expiresIn"`
	Results    int             `json:"results"`
	TotalCount int64           `json:"totalCount"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t := c.token(); t != "" {
		req.Header.Set(common.AccessTokenHeaderName, t)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	if errors.Is(decodeErr, io.EOF) {
		decodeErr = nil
	}

	if err := statusError(resp.StatusCode, env.Message); err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding %s %s: %w", method, path, decodeErr)
	}
	return &env, nil
}

// statusError maps a response status onto the client's sentinels.
func statusError(code int, msg string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		if msg == common.ErrTokenExpired.Error() {
			return fmt.Errorf("%w: %w", ErrUnauthorized, common.ErrTokenExpired)
		}
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusBadGateway, code == http.StatusServiceUnavailable, code == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: status %d", ErrUnavailable, code)
	default:
		return &APIError{Status: code, Message: msg}
	}
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) GetUser(ctx context.Context, address string) (*models.User, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(address), nil)
	if err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, ErrNotFound
	}
	return env.User, nil
}

func (c *HTTPClient) RegisterUser(ctx context.Context, address, adminNFT string) (*models.User, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/users", map[string]string{
		"publicAddress": address,
		"adminNFT":      adminNFT,
	})
	if err != nil {
		return nil, err
	}
	return env.User, nil
}

func (c *HTTPClient) GetChallenge(ctx context.Context, address string) (string, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/auth/get_challenge/"+url.PathEscape(address), nil)
	if err != nil {
		return "", err
	}
	return env.Response, nil
}

func (c *HTTPClient) CheckAdmin(ctx context.Context, challenge, signature string) (bool, error) {
	env, err := c.do(ctx, http.MethodGet,
		"/api/auth/admin/"+url.PathEscape(challenge)+"/"+url.PathEscape(signature)+"/", nil)
	if err != nil {
		return false, err
	}
	return env.Success != nil && *env.Success, nil
}

func (c *HTTPClient) IssueToken(ctx context.Context, challenge, signature string) (string, error) {
	env, err := c.do(ctx, http.MethodGet,
		"/api/auth/authentication/"+url.PathEscape(challenge)+"/"+url.PathEscape(signature), nil)
	if err != nil {
		return "", err
	}
	if env.Token == "" {
		return "", fmt.Errorf("%w: empty token", ErrUnauthorized)
	}
	return env.Token, nil
}

func (c *HTTPClient) FilesForToken(ctx context.Context, tokenID string) ([]*models.File, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/tokens/"+url.PathEscape(tokenID)+"/files", nil)
	if err != nil {
		return nil, err
	}
	var files []*models.File
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &files); err != nil {
			return nil, fmt.Errorf("decoding files: %w", err)
		}
	}
	return files, nil
}

func (c *HTTPClient) StreamLink(ctx context.Context, fileID, tokenID string) (*models.StreamLink, error) {
	path := "/api/files/" + url.PathEscape(fileID) + "/stream"
	if tokenID != "" {
		path += "?" + url.Values{"token": {tokenID}}.Encode()
	}
	env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return &models.StreamLink{URL: env.URL, ExpiresIn: env.ExpiresIn}, nil
}
