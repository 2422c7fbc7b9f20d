// Package api is the HTTP client for the vault server. It owns the session
// cookie (saved to a file between invocations) and the device header; it never
// sees plaintext secrets beyond the request bodies it is asked to send.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/avilks/passvault/internal/client/config"
	"github.com/avilks/passvault/internal/common"
)

type Client struct {
	baseURL     string
	deviceID    string
	sessionFile string
	http        *http.Client
}

func New(cfg *config.Config) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.ServerURL, "/"),
		deviceID:    cfg.DeviceID,
		sessionFile: cfg.SessionFile,
		http:        &http.Client{Timeout: 30 * time.Second},
	}
}

type Service struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Credential struct {
	ID                 string `json:"id"`
	Username           string `json:"username"`
	PasswordCiphertext []byte `json:"passwordCiphertext"`
	DeviceID           string `json:"deviceId"`
}

type Authenticator struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	SecretCiphertext []byte `json:"secretCiphertext"`
	Digits           int    `json:"digits"`
	Period           int    `json:"period"`
	Algorithm        string `json:"algorithm"`
	DeviceID         string `json:"deviceId"`
}

type Attachment struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
}

// do sends a JSON request and decodes a JSON response into out (when out is
// non-nil). A 401 surfaces as common.ErrUnauthorized so callers can prompt
// for a fresh login.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.deviceID != "" {
		req.Header.Set(common.DeviceIDHeaderName, c.deviceID)
	}
	if authenticated {
		token, err := c.sessionToken()
		if err != nil {
			return fmt.Errorf("%w: no saved session, run login first", common.ErrUnauthorized)
		}
		req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: token})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", common.ErrUnauthorized, readErrorMessage(resp.Body))
		}
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, readErrorMessage(resp.Body))
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&e); err != nil || e.Error == "" {
		return "unexpected response"
	}
	return e.Error
}

// Register creates an account and returns the private key PEM. The caller is
// responsible for storing it; the server will never hand it out again.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	var out struct {
		PrivateKey string `json:"privateKey"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/register",
		map[string]string{"name": name, "email": email, "password": password}, &out, false)
	if err != nil {
		return "", err
	}
	return out.PrivateKey, nil
}

// Login authenticates and persists the session cookie value to the session
// file with owner-only permissions.
func (c *Client) Login(ctx context.Context, email, password string) error {
	b, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", common.ErrUnauthorized, readErrorMessage(resp.Body))
		}
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, readErrorMessage(resp.Body))
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == common.SessionCookieName {
			return os.WriteFile(c.sessionFile, []byte(cookie.Value), 0o600)
		}
	}
	return fmt.Errorf("server did not set a session cookie")
}

func (c *Client) sessionToken() (string, error) {
	data, err := os.ReadFile(c.sessionFile)
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("empty session file")
	}
	return token, nil
}

func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	var out []Service
	err := c.do(ctx, http.MethodGet, "/api/services", nil, &out, true)
	return out, err
}

func (c *Client) CreateService(ctx context.Context, url string) (*Service, error) {
	var out Service
	err := c.do(ctx, http.MethodPost, "/api/services", map[string]string{"url": url}, &out, true)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListCredentials(ctx context.Context, serviceID string) ([]Credential, error) {
	var out []Credential
	err := c.do(ctx, http.MethodGet, "/api/services/"+serviceID+"/passwords", nil, &out, true)
	return out, err
}

func (c *Client) AddCredential(ctx context.Context, serviceID, username, password string) error {
	return c.do(ctx, http.MethodPost, "/api/services/"+serviceID+"/passwords",
		map[string]string{"username": username, "password": password}, nil, true)
}

func (c *Client) ListAuthenticators(ctx context.Context, serviceID string) ([]Authenticator, error) {
	var out []Authenticator
	err := c.do(ctx, http.MethodGet, "/api/services/"+serviceID+"/authenticators", nil, &out, true)
	return out, err
}

func (c *Client) AddAuthenticator(ctx context.Context, serviceID, name, secret string, digits, period int, algorithm string) error {
	return c.do(ctx, http.MethodPost, "/api/services/"+serviceID+"/authenticators", map[string]any{
		"name":      name,
		"secret":    secret,
		"digits":    digits,
		"period":    period,
		"algorithm": algorithm,
	}, nil, true)
}

func (c *Client) ListAttachments(ctx context.Context, serviceID string) ([]Attachment, error) {
	var out []Attachment
	err := c.do(ctx, http.MethodGet, "/api/services/"+serviceID+"/attachments", nil, &out, true)
	return out, err
}

// CreateAttachment registers the attachment and returns the presigned URL to
// upload the encrypted blob to.
func (c *Client) CreateAttachment(ctx context.Context, serviceID, fileName string) (id, uploadURL string, err error) {
	var out struct {
		ID        string `json:"id"`
		FileName  string `json:"fileName"`
		UploadURL string `json:"uploadUrl"`
	}
	err = c.do(ctx, http.MethodPost, "/api/services/"+serviceID+"/attachments",
		map[string]string{"fileName": fileName}, &out, true)
	if err != nil {
		return "", "", err
	}
	return out.ID, out.UploadURL, nil
}

func (c *Client) AttachmentURL(ctx context.Context, serviceID, attachmentID string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := c.do(ctx, http.MethodGet, "/api/services/"+serviceID+"/attachments/"+attachmentID+"/url", nil, &out, true)
	if err != nil {
		return "", err
	}
	return out.URL, nil
}
