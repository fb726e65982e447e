package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"path"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/leg100/roster/internal"
	"github.com/leg100/roster/internal/logr"
)

const (
	// DefaultAddress is the default address of the roster server.
	DefaultAddress = "localhost:8080"
)

type (
	Client struct {
		baseURL *internal.WebURL
		headers http.Header
		http    *retryablehttp.Client
	}

	// ClientConfig provides configuration details to the API client.
	ClientConfig struct {
		// The address of the roster server.
		Address string
		// Headers that will be added to every request.
		Headers http.Header
		// Toggle retrying requests upon encountering transient errors.
		RetryRequests bool
		// Override default http transport
		Transport http.RoundTripper
		// Logger for logging an error upon retry
		Logger logr.Logger
	}
)

func NewClient(config ClientConfig) (*Client, error) {
	// set defaults
	if config.Address == "" {
		config.Address = DefaultAddress
	}
	if config.Headers == nil {
		config.Headers = make(http.Header)
	}
	if config.Transport == nil {
		config.Transport = http.DefaultTransport
	}
	config.Headers.Set("User-Agent", "roster-client")

	baseURL, err := internal.NewWebURL(config.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if !strings.HasSuffix(baseURL.Path, "/") {
		baseURL.Path += "/"
	}

	client := &Client{
		baseURL: baseURL,
		headers: config.Headers,
	}
	client.http = &retryablehttp.Client{
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
		HTTPClient:   &http.Client{Transport: config.Transport},
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 30 * time.Second,
		RetryMax:     30,
	}
	if config.RetryRequests {
		// enable retries
		client.http.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
			retry, retryErr := retryablehttp.ErrorPropagatedRetryPolicy(ctx, resp, err)
			if retry {
				// The ErrorPropagatedRetryPolicy sometimes returns an error
				// explaining why it has decided to retry and if so then report
				// this error rather than the original error.
				if retryErr != nil {
					err = retryErr
				}
				// The http response is nil when there is a problem with the
				// request and there is no response, e.g. socket timeout.
				if resp != nil && resp.Request != nil {
					config.Logger.Error(err, "retrying request", "url", resp.Request.URL, "status", resp.StatusCode)
				} else {
					config.Logger.Error(err, "retrying request")
				}
			}
			return retry, retryErr
		}
	} else {
		// disable retries
		client.http.CheckRetry = func(_ context.Context, _ *http.Response, err error) (bool, error) {
			return false, err
		}
	}
	return client, nil
}

// NewRequest creates an API request. The path is resolved relative to the
// base URL of the client. If v is non-nil it is JSON encoded and included as
// the request body.
func (c *Client) NewRequest(method, urlPath string, v any) (*retryablehttp.Request, error) {
	u, err := c.baseURL.Parse(path.Clean(strings.TrimPrefix(urlPath, "/")))
	if err != nil {
		return nil, err
	}

	// Create a request specific headers map.
	reqHeaders := make(http.Header)
	reqHeaders.Set("Accept", "application/json")

	var body any
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
		reqHeaders.Set("Content-Type", "application/json")
	}

	req, err := retryablehttp.NewRequest(method, u.String(), body)
	if err != nil {
		return nil, err
	}

	// Set the default headers.
	maps.Copy(req.Header, c.headers)

	// Set the request specific headers.
	maps.Copy(req.Header, reqHeaders)

	return req, nil
}

// Do sends an API request and returns the API response. The JSON response
// body is decoded into the value pointed to by v, or returned as an error if
// an API error has occurred.
//
// The provided ctx must be non-nil. If it is canceled or times out, ctx.Err()
// will be returned.
func (c *Client) Do(ctx context.Context, req *retryablehttp.Request, v any) error {
	// Add the context to the request.
	req = req.WithContext(ctx)

	// Execute the request and check the response.
	resp, err := c.http.Do(req)
	if err != nil {
		// If we got an error, and the context has been canceled,
		// the context's error is probably more useful.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return err
		}
	}
	defer resp.Body.Close()

	// Basic response checking.
	if err := checkResponseCode(resp); err != nil {
		return err
	}

	// Return here if decoding the response isn't needed.
	if v == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("unmarshalling response: %w", err)
	}
	return nil
}

// checkResponseCode returns an error if the response is not a success. The
// error carries the detail reported by the server, if any.
func checkResponseCode(r *http.Response) error {
	if r.StatusCode >= 200 && r.StatusCode <= 299 {
		return nil
	}
	msg := r.Status
	var payload ErrorResponse
	b, err := io.ReadAll(r.Body)
	if err == nil && json.Unmarshal(b, &payload) == nil && payload.Detail != "" {
		msg = payload.Detail
	}
	return &internal.HTTPError{Code: r.StatusCode, Message: msg}
}
