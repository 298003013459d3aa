package univerify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Validation patterns
var (
	transactionHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{1,128}$`)
	identifierPattern      = regexp.MustCompile(`^[A-Za-z0-9_\-.]{1,256}$`)
	walletAddressPattern   = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
)

// maxErrorBodySize caps how much of an error body is read.
const maxErrorBodySize = 64 * 1024

// Client is the UniVerify API client.
type Client struct {
	baseURL    string
	session    *Session
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new UniVerify client with the given configuration.
//
// Example:
//
//	client, err := univerify.NewClient(univerify.ClientConfig{
//	    BaseURL: "http://localhost:5000",
//	    Session: univerify.NewStaticSession(token, nil),
//	})
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, &ValidationError{Field: "BaseURL", Message: "is required"}
	}

	parsedURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, &ValidationError{Field: "BaseURL", Message: "must be a valid URL"}
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, &ValidationError{Field: "BaseURL", Message: "must use http or https protocol"}
	}

	if parsedURL.Host == "" {
		return nil, &ValidationError{Field: "BaseURL", Message: "must include a host"}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 5 * time.Minute
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	session := cfg.Session
	if session == nil {
		session = NewStaticSession("", nil)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		session:    session,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// String returns a string representation with the token redacted.
func (c *Client) String() string {
	tokenDisplay := "none"
	if c.session.Token() != "" {
		tokenDisplay = "***redacted***"
	}
	return fmt.Sprintf("UniVerifyClient(baseURL=%q, token=%s)", c.baseURL, tokenDisplay)
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the session shared by all requests of this client.
func (c *Client) Session() *Session {
	return c.session
}

// validateTransactionHash validates a 0x-prefixed hex transaction hash.
func validateTransactionHash(hash string) error {
	if hash == "" || !transactionHashPattern.MatchString(hash) {
		return &ValidationError{
			Field:   "transactionHash",
			Message: "must be a 0x-prefixed hex string",
		}
	}
	return nil
}

// validateIdentifier validates a path identifier such as a public ID or txId.
func validateIdentifier(field, id string) error {
	if id == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	if !identifierPattern.MatchString(id) || strings.Contains(id, "..") {
		return &ValidationError{Field: field, Message: "contains invalid characters"}
	}
	return nil
}

// validateWalletAddress validates a 0x-prefixed 20-byte address.
func validateWalletAddress(addr string) error {
	if !walletAddressPattern.MatchString(addr) {
		return &ValidationError{Field: "walletAddress", Message: "must be a 0x-prefixed 40 character hex address"}
	}
	return nil
}

// requireToken returns the session token or the local 401 precondition error.
func (c *Client) requireToken(operation string) (string, error) {
	token := c.session.Token()
	if token == "" {
		return "", authRequiredError(operation)
	}
	return token, nil
}

// request makes an HTTP request to the API. The bearer token is attached
// when withAuth is set and a token is present.
func (c *Client) request(ctx context.Context, method, path string, body io.Reader, contentType string, withAuth bool) (*http.Response, error) {
	reqURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if withAuth {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, networkError(err)
	}

	return resp, nil
}

// handleResponse checks for errors, decodes the JSON response into target
// and validates it.
func handleResponse(resp *http.Response, target validator) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeErrorResponse(resp)
	}

	if target == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return malformedError(resp.StatusCode, fmt.Sprintf("decoding response: %v", err))
	}

	if problem := target.validate(); problem != "" {
		if env, ok := target.(interface{ envelope() apiEnvelope }); ok {
			if e := env.envelope(); !e.Success {
				msg := e.Message
				if msg == "" {
					msg = problem
				}
				return &APIError{StatusCode: resp.StatusCode, Message: sanitizeErrorMessage(msg), Err: ErrRejected}
			}
		}
		return malformedError(resp.StatusCode, problem)
	}

	return nil
}

// decodeErrorResponse turns a non-2xx response into an APIError, preferring
// the backend's message and falling back to the status line.
func decodeErrorResponse(resp *http.Response) *APIError {
	fallback := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))

	var payload map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBodySize)).Decode(&payload); err != nil {
		return newAPIError(resp.StatusCode, fallback, nil)
	}

	message := fallback
	for _, key := range []string{"message", "error"} {
		if s, ok := payload[key].(string); ok && s != "" {
			message = s
			break
		}
	}
	return newAPIError(resp.StatusCode, message, payload)
}

// envelope exposes the common success/message fields for handleResponse.
func (e apiEnvelope) envelope() apiEnvelope {
	return e
}

// parseTime parses an ISO 8601 time string.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
