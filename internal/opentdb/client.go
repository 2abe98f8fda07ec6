package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"triviamirror/internal/domain"
)

// MaxAmount is the largest amount the remote source serves per call
const MaxAmount = 50

// ClientConfig holds settings for the remote source client
type ClientConfig struct {
	BaseURL    string
	MinSpacing time.Duration
	Timeout    time.Duration
}

// DefaultClientConfig returns the settings the public Open Trivia DB expects
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:    "https://opentdb.com",
		MinSpacing: 5000 * time.Millisecond,
		Timeout:    30 * time.Second,
	}
}

// CallOptions controls validation and pacing of a single call
type CallOptions struct {
	Validate     bool
	UseRateLimit bool
}

// RemoteCategory is a category as listed by the remote source
type RemoteCategory struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// QuestionsResponse is the payload of a batch question fetch
type QuestionsResponse struct {
	ResponseCode ResponseCode       `json:"response_code"`
	Results      []domain.Candidate `json:"results"`
}

// Client talks to the remote question source.
// The zero value is not usable; construct with NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
	minSpacing time.Duration

	// rateMu serializes rate-limited calls so the spacing holds
	rateMu   sync.Mutex
	lastCall time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client for the given configuration
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultClientConfig().BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultClientConfig().Timeout
	}
	c := &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		minSpacing: cfg.MinSpacing,
		now:        time.Now,
		sleep:      sleepContext,
	}
	c.lastCall = c.now().Add(-cfg.MinSpacing)
	return c
}

// Call fetches url and decodes the JSON payload into out.
// With UseRateLimit the call waits until MinSpacing has passed since the end
// of the previous rate-limited call. With Validate a non-zero response_code
// fails with *ProtocolError.
func (c *Client) Call(ctx context.Context, rawURL string, opts CallOptions, out interface{}) error {
	if opts.UseRateLimit {
		c.rateMu.Lock()
		defer c.rateMu.Unlock()

		if err := c.respectRateLimit(ctx); err != nil {
			return err
		}
		defer func() { c.lastCall = c.now() }()
	}

	body, status, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}

	if opts.Validate {
		if err := validate(body, status); err != nil {
			return err
		}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response from %s (HTTP %d): %w", rawURL, status, err)
		}
	}
	return nil
}

func (c *Client) respectRateLimit(ctx context.Context) error {
	elapsed := c.now().Sub(c.lastCall)
	wait := c.minSpacing - elapsed
	if wait <= 0 {
		return nil
	}
	log.Printf("          spent %d ms working, now waiting %d ms.", elapsed.Milliseconds(), wait.Milliseconds())
	return c.sleep(ctx, wait)
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// validate checks the embedded response_code of a payload
func validate(body []byte, status int) error {
	var envelope struct {
		ResponseCode *ResponseCode `json:"response_code"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode response (HTTP %d): %w", status, err)
	}
	if envelope.ResponseCode == nil {
		return fmt.Errorf("response without response_code (HTTP %d)", status)
	}
	if *envelope.ResponseCode != CodeSuccess {
		return newProtocolError(*envelope.ResponseCode)
	}
	return nil
}

// Categories lists the remote categories
func (c *Client) Categories(ctx context.Context) ([]RemoteCategory, error) {
	var result struct {
		TriviaCategories []RemoteCategory `json:"trivia_categories"`
	}
	if err := c.Call(ctx, c.baseURL+"/api_category.php", CallOptions{}, &result); err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	return result.TriviaCategories, nil
}

// CategoryCount returns the total number of questions in a remote category
func (c *Client) CategoryCount(ctx context.Context, categoryID int) (int, error) {
	var result struct {
		Counts struct {
			Total int `json:"total_question_count"`
		} `json:"category_question_count"`
	}
	u := c.baseURL + "/api_count.php?category=" + strconv.Itoa(categoryID)
	if err := c.Call(ctx, u, CallOptions{}, &result); err != nil {
		return 0, fmt.Errorf("count category %d: %w", categoryID, err)
	}
	return result.Counts.Total, nil
}

// RequestToken issues a new session token
func (c *Client) RequestToken(ctx context.Context) (string, error) {
	var result struct {
		Token string `json:"token"`
	}
	u := c.baseURL + "/api_token.php?command=request"
	if err := c.Call(ctx, u, CallOptions{Validate: true}, &result); err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	if result.Token == "" {
		return "", fmt.Errorf("request token: empty token in response")
	}
	return result.Token, nil
}

// Questions fetches a batch of questions for a category. The call is
// validated and rate limited.
func (c *Client) Questions(ctx context.Context, amount, categoryID int, token string) (*QuestionsResponse, error) {
	q := url.Values{}
	q.Set("amount", strconv.Itoa(amount))
	q.Set("category", strconv.Itoa(categoryID))
	q.Set("token", token)

	var result QuestionsResponse
	u := c.baseURL + "/api.php?" + q.Encode()
	if err := c.Call(ctx, u, CallOptions{Validate: true, UseRateLimit: true}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
