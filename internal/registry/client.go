package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/workproof/workproof/internal/model"
)

// Client implements Registry against an HTTP gateway exposing the ledger
// contract calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures the registry client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout (default: 30s).
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a registry client for the given gateway base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Registry = (*Client)(nil)

type registerRequest struct {
	Domain string `json:"domain"`
}

type registerResponse struct {
	AgentID int64 `json:"agent_id"`
}

func (c *Client) Register(ctx context.Context, domain string) (int64, error) {
	var resp registerResponse
	if err := c.post(ctx, "/agents", registerRequest{Domain: domain}, &resp); err != nil {
		return 0, &RegistryError{Op: "register", Err: err}
	}
	return resp.AgentID, nil
}

type requestValidationRequest struct {
	ValidatorID int64  `json:"validator_id"`
	Hash        string `json:"hash"`
}

func (c *Client) RequestValidation(ctx context.Context, validatorID int64, hash model.ContentHash) (Receipt, error) {
	var receipt Receipt
	body := requestValidationRequest{ValidatorID: validatorID, Hash: hash.Hex()}
	if err := c.post(ctx, "/validation-requests", body, &receipt); err != nil {
		return Receipt{}, &RegistryError{Op: "request validation", Err: err}
	}
	return receipt, nil
}

type validationResponseRequest struct {
	Hash  string `json:"hash"`
	Score int    `json:"score"`
}

func (c *Client) SubmitValidationResponse(ctx context.Context, hash model.ContentHash, score int) (Receipt, error) {
	var receipt Receipt
	body := validationResponseRequest{Hash: hash.Hex(), Score: score}
	if err := c.post(ctx, "/validation-responses", body, &receipt); err != nil {
		return Receipt{}, &RegistryError{Op: "submit validation response", Err: err}
	}
	return receipt, nil
}

type feedbackAuthRequest struct {
	ClientID int64 `json:"client_id"`
}

func (c *Client) AuthorizeFeedback(ctx context.Context, clientID int64) (Receipt, error) {
	var receipt Receipt
	if err := c.post(ctx, "/feedback-authorizations", feedbackAuthRequest{ClientID: clientID}, &receipt); err != nil {
		return Receipt{}, &RegistryError{Op: "authorize feedback", Err: err}
	}
	return receipt, nil
}

func (c *Client) PendingValidations(ctx context.Context, validatorID int64) ([]ValidationRequest, error) {
	q := url.Values{"validator_id": {strconv.FormatInt(validatorID, 10)}}
	var requests []ValidationRequest
	if err := c.get(ctx, "/validation-requests?"+q.Encode(), &requests); err != nil {
		return nil, &RegistryError{Op: "pending validations", Err: err}
	}
	return requests, nil
}

// ---------------------------------------------------------------------------
// HTTP plumbing
// ---------------------------------------------------------------------------

// gatewayError represents a gateway response that may be transient.
type gatewayError struct {
	StatusCode int
	Body       string
}

func (e *gatewayError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *gatewayError) isRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

func (c *Client) post(ctx context.Context, path string, reqBody, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// do issues a request, retrying once with backoff on transient failures.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	const maxAttempts = 2
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := c.doRequest(ctx, method, path, body, out)
		if err == nil {
			return nil
		}
		lastErr = err

		var ge *gatewayError
		if errors.As(err, &ge) && !ge.isRetryable() {
			return err
		}

		if attempt < maxAttempts-1 {
			backoff := time.Duration(attempt+1) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &gatewayError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
