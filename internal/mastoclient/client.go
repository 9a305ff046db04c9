package mastoclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"mastogone/internal/model"
)

// Client defines the methods we use from the Mastodon API.
type Client interface {
	VerifyCredentials(ctx context.Context) (model.Account, error)
	AccountStatuses(ctx context.Context, accountID, maxID string, limit int) ([]model.Status, error)
	DeleteStatus(ctx context.Context, id string) error
}

// APIError is a non-2xx response from the instance.
type APIError struct {
	StatusCode int
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mastodon api status %d on %s", e.StatusCode, e.Endpoint)
}

// IsRateLimit reports whether err is an HTTP 429 from the API.
func IsRateLimit(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusTooManyRequests
}

// IsAuth reports whether err is a credential rejection from the API.
func IsAuth(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && (ae.StatusCode == http.StatusUnauthorized || ae.StatusCode == http.StatusForbidden)
}

// HTTPClient is a bearer-token client for the Mastodon v1 API.
// Retry policy lives in the caller; the client surfaces 429s as-is so the
// processor can apply its cooldown.
type HTTPClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

func NewHTTPClient(baseURL, accessToken string) *HTTPClient {
	return &HTTPClient{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		limiter:     newDefaultLimiter(),
	}
}

func (c *HTTPClient) auth(req *http.Request) {
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	req.Header.Set("Accept", "application/json")
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.auth(req)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint}
	}
	return resp, nil
}

// VerifyCredentials resolves the access token to the owning account.
func (c *HTTPClient) VerifyCredentials(ctx context.Context) (model.Account, error) {
	var out model.Account
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/accounts/verify_credentials")
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode account: %w", err)
	}
	if out.ID == "" {
		return out, errors.New("verify_credentials returned no account id")
	}
	return out, nil
}

// AccountStatuses returns one page of the account's statuses, newest first.
// An empty maxID starts from the most recent status; otherwise only statuses
// older than maxID are returned.
func (c *HTTPClient) AccountStatuses(ctx context.Context, accountID, maxID string, limit int) ([]model.Status, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if maxID != "" {
		q.Set("max_id", maxID)
	}
	endpoint := fmt.Sprintf("/api/v1/accounts/%s/statuses?%s", url.PathEscape(accountID), q.Encode())
	resp, err := c.do(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var page []model.Status
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode statuses page: %w", err)
	}
	return page, nil
}

// DeleteStatus removes a single status. 429 responses come back as an
// *APIError satisfying IsRateLimit.
func (c *HTTPClient) DeleteStatus(ctx context.Context, id string) error {
	endpoint := "/api/v1/statuses/" + url.PathEscape(id)
	resp, err := c.do(ctx, http.MethodDelete, endpoint)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}
