// Package httpclient implements the gateway side of service-to-service HTTP
// calls.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rcastell/homestock/internal/retry"
)

const (
	forwardAttempts     = 3
	forwardInitialDelay = 200 * time.Millisecond
)

// ServiceClient forwards requests to one backend service.
type ServiceClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewServiceClient(baseURL string) *ServiceClient {
	return &ServiceClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Response is a buffered backend reply, safe to replay to the client.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do sends method+path with the given body and headers, retrying transport
// failures with doubling backoff. Backend error statuses are returned as-is,
// not retried.
func (c *ServiceClient) Do(ctx context.Context, method, path string, body []byte, header http.Header) (*Response, error) {
	return retry.Do(ctx, forwardAttempts, forwardInitialDelay, func(ctx context.Context) (*Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		for key, values := range header {
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("call %s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: payload}, nil
	})
}

// Forward proxies an incoming request to the backend and replays the reply.
func (c *ServiceClient) Forward(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}

	path := r.URL.Path
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	resp, err := c.Do(r.Context(), r.Method, path, body, r.Header)
	if err != nil {
		return err
	}
	WriteResponse(w, resp)
	return nil
}

// WriteResponse replays a buffered backend reply to the client.
func WriteResponse(w http.ResponseWriter, resp *Response) {
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)
}
