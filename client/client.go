// Package client is a Go client for the Hypernode HTTP API. Every
// transaction is signed with the client's ed25519 key.
package client

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hypernode-network/hypernode/api"
	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

const defaultTimeout = 30 * time.Second

// Client talks to one Hypernode API endpoint on behalf of one signer.
type Client struct {
	baseURL string
	http    *http.Client
	key     ed25519.PrivateKey
	signer  types.PublicKey
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClock replaces the time source used to stamp signed requests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client for baseURL that signs with key.
func New(baseURL string, key ed25519.PrivateKey, opts ...Option) *Client {
	pub, _ := key.Public().(ed25519.PublicKey)
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		key:     key,
		signer:  types.PublicKeyFromEd25519(pub),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Signer is the public key requests are signed with.
func (c *Client) Signer() types.PublicKey {
	return c.signer
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Status   int
	Response api.ErrorResponse
}

func (e *APIError) Error() string {
	if e.Response.Error != "" {
		return fmt.Sprintf("api returned %d: %s", e.Status, e.Response.Error)
	}
	return fmt.Sprintf("api returned %d", e.Status)
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
}

// CodeOf returns the API error code of err, or "" when err is not an APIError.
func CodeOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Response.Code
	}
	return ""
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, signed bool, out interface{}) error {
	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if signed {
		timestamp := c.now().Unix()
		req.Header.Set(api.HeaderSigner, c.signer.String())
		req.Header.Set(api.HeaderTimestamp, strconv.FormatInt(timestamp, 10))
		req.Header.Set(api.HeaderSignature, api.SignRequest(func(msg []byte) []byte {
			return ed25519.Sign(c.key, msg)
		}, method, req.URL.Path, timestamp, raw))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(payload, &apiErr.Response)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// txResult decodes the record carried by a transaction response.
type txResult struct {
	Address types.Address   `json:"address"`
	Record  json.RawMessage `json:"record"`
}

func (c *Client) tx(ctx context.Context, method, path string, body interface{}, record interface{}) (types.Address, error) {
	var res txResult
	if err := c.do(ctx, method, path, nil, body, true, &res); err != nil {
		return types.Address{}, err
	}
	if record != nil && len(res.Record) > 0 {
		if err := json.Unmarshal(res.Record, record); err != nil {
			return types.Address{}, fmt.Errorf("failed to decode record: %w", err)
		}
	}
	return res.Address, nil
}
