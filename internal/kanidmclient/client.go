package kanidmclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	kaniopserrors "github.com/kaniop/kaniop/internal/errors"
)

// Client is an authenticated HTTPS client for one Kanidm cluster's admin
// API, the Kanidm-domain analogue of the teacher's openbao.Client: a thin
// request/response wrapper with a shared smart-client layer for rate
// limiting and circuit breaking.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	smart      *smartState
}

func newHTTPClient(cfg ClientConfig) (*http.Client, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if len(cfg.CACert) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(cfg.CACert) {
			return nil, fmt.Errorf("invalid CA certificate for cluster %s", cfg.Cluster)
		}
		tlsConfig.RootCAs = pool
	}

	return &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &http.Transport{
			TLSClientConfig: tlsConfig,
		},
	}, nil
}

// newUnauthenticated constructs a client with no bearer token, used only
// to perform the initial authentication call.
func newUnauthenticated(cfg ClientConfig) (*Client, error) {
	httpClient, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
		smart:      getOrCreateSmartState(cfg),
	}, nil
}

// authResponse mirrors Kanidm's /v1/auth session negotiation response for
// the password-authentication path used by the bootstrap admin account.
type authResponse struct {
	State struct {
		Success  string   `json:"success,omitempty"`
		Continue []string `json:"continue,omitempty"`
	} `json:"state"`
	SessionID string `json:"sessionid,omitempty"`
}

// authenticate performs the two-step Kanidm auth handshake (init then
// password step) and returns a bearer token usable on subsequent calls.
func authenticate(ctx context.Context, cfg ClientConfig) (string, error) {
	client, err := newUnauthenticated(cfg)
	if err != nil {
		return "", err
	}

	initBody := map[string]any{"step": map[string]any{"init": cfg.Username}}
	initResp := authResponse{}
	sessionID, err := client.authStep(ctx, "", initBody, &initResp)
	if err != nil {
		return "", err
	}

	passwordBody := map[string]any{"step": map[string]any{"cred": map[string]any{"password": cfg.Password}}}
	finalResp := authResponse{}
	if _, err := client.authStep(ctx, sessionID, passwordBody, &finalResp); err != nil {
		return "", err
	}

	if finalResp.SessionID == "" {
		return "", kaniopserrors.WrapAuthFailed(fmt.Errorf("kanidm auth for %s did not return a session token", cfg.Username))
	}
	return finalResp.SessionID, nil
}

func (c *Client) authStep(ctx context.Context, sessionID string, body any, out *authResponse) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode kanidm auth step: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/auth", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build kanidm auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("X-KANIDM-AUTH-SESSION-ID", sessionID)
	}

	resp, respBody, err := c.do(req, "kanidm-auth")
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", kaniopserrors.WrapAuthFailed(fmt.Errorf("kanidm auth rejected (status %d)", resp.StatusCode))
	}
	if resp.StatusCode >= 300 {
		return "", kaniopserrors.WrapRemote(resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return "", fmt.Errorf("decode kanidm auth response: %w", err)
	}
	sessionToken := resp.Header.Get("X-KANIDM-AUTH-SESSION-ID")
	if sessionToken == "" {
		sessionToken = out.SessionID
	}
	return sessionToken, nil
}

// withToken returns a shallow copy of the client authenticated as token.
func (c *Client) withToken(token string) *Client {
	return &Client{baseURL: c.baseURL, token: token, httpClient: c.httpClient, smart: c.smart}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request for %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, op string) (*http.Response, []byte, error) {
	if c.smart != nil {
		if err := c.smart.allow(req.Context(), req); err != nil {
			return nil, nil, err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.smart != nil {
			c.smart.after(req, false)
		}
		return nil, nil, kaniopserrors.ClassifyNetwork(fmt.Errorf("%s: %w", op, err))
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if c.smart != nil {
			c.smart.after(req, false)
		}
		return nil, nil, fmt.Errorf("%s: read response body: %w", op, err)
	}

	success := resp.StatusCode < 300
	if c.smart != nil {
		c.smart.after(req, success || resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden)
	}

	return resp, body, nil
}

// call performs one authenticated API request and decodes a JSON
// response body into out (if non-nil), classifying any non-2xx response
// per the error taxonomy of spec §4.4.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, respBody, err := c.do(req, method+" "+path)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return kaniopserrors.WrapAuthFailed(fmt.Errorf("kanidm rejected session on %s %s (status %d)", method, path, resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return kaniopserrors.WrapNotFound(fmt.Errorf("kanidm has no resource at %s", path))
	case resp.StatusCode == http.StatusConflict:
		return kaniopserrors.WrapConflict(fmt.Errorf("kanidm reported a conflict on %s %s", method, path))
	case resp.StatusCode >= 300:
		return kaniopserrors.WrapRemote(resp.StatusCode, string(respBody))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response from %s %s: %w", method, path, err)
	}
	return nil
}
