package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Envelope is the response shape every backend endpoint returns.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// APIError is returned for transport failures, non-2xx statuses and
// envelopes with success=false.
type APIError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("backend %s: %s", e.Endpoint, e.Message)
	}
	return fmt.Sprintf("backend %s: status %d: %s", e.Endpoint, e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// OnError is called with the endpoint of every failed call.
	OnError func(endpoint string)
}

// Client talks to the upstream practice-management API. It never retries:
// retries are an explicit user action.
type Client struct {
	http    *resty.Client
	onError func(endpoint string)
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if opts.Token != "" {
		c.SetAuthToken(opts.Token)
	}
	onError := opts.OnError
	if onError == nil {
		onError = func(string) {}
	}
	return &Client{http: c, onError: onError}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

func decode[T any](c *Client, endpoint string, resp *resty.Response, err error) (T, error) {
	var zero T
	if err != nil {
		c.onError(endpoint)
		return zero, errors.Wrap(&APIError{Endpoint: endpoint, Message: err.Error()}, "backend request failed")
	}
	env, _ := resp.Result().(*Envelope[T])
	if resp.IsError() || env == nil || !env.Success {
		c.onError(endpoint)
		msg := http.StatusText(resp.StatusCode())
		if env != nil && env.Message != "" {
			msg = env.Message
		} else if failed, ok := resp.Error().(*Envelope[T]); ok && failed.Message != "" {
			msg = failed.Message
		}
		return zero, &APIError{Endpoint: endpoint, Status: resp.StatusCode(), Message: msg}
	}
	return env.Data, nil
}

// Get fetches endpoint and unwraps the envelope's data.
func Get[T any](ctx context.Context, c *Client, endpoint string, query url.Values) (T, error) {
	resp, err := c.request(ctx).
		SetQueryParamsFromValues(query).
		SetResult(&Envelope[T]{}).
		SetError(&Envelope[T]{}).
		Get(endpoint)
	return decode[T](c, endpoint, resp, err)
}

// Post sends body as JSON and unwraps the envelope's data.
func Post[T any](ctx context.Context, c *Client, endpoint string, body any) (T, error) {
	resp, err := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&Envelope[T]{}).
		SetError(&Envelope[T]{}).
		Post(endpoint)
	return decode[T](c, endpoint, resp, err)
}
