package mutation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	ferrors "github.com/vango-dev/goalfeed/internal/errors"
	"github.com/vango-dev/goalfeed/pkg/entity"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// genericReason is used when a failed response carries no readable reason.
const genericReason = "Something went wrong!!"

// Client is the HTTP Executor for the feed API.
type Client struct {
	baseURL string
	http    *http.Client
	routes  Routes
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client. The client's Timeout, if
// any, is the only deadline applied to writes.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRoutes replaces the route table.
func WithRoutes(r Routes) ClientOption {
	return func(c *Client) {
		c.routes = r
	}
}

// NewClient creates a Client that posts to baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		routes:  DefaultRoutes(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute validates d and sends exactly one POST request for it.
func (c *Client) Execute(ctx context.Context, d entity.Descriptor) Outcome {
	if err := entity.Validate(d); err != nil {
		return Failure(err)
	}

	path, ok := c.routes.Lookup(d)
	if !ok {
		return Failure(ferrors.Mutation("no endpoint for " + RouteName(d)).
			Wrap(ferrors.New(ferrors.CodeUnknownRoute).WithDetail(RouteName(d))))
	}

	body, err := json.Marshal(d.Body())
	if err != nil {
		return Failure(ferrors.Mutation("encode request").Wrap(err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Failure(ferrors.Mutation(err.Error()).Wrap(err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Failure(ferrors.Mutation(err.Error()).Wrap(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Failure(ferrors.Mutation(reason(resp.StatusCode, data)))
	}
	if err != nil {
		return Failure(ferrors.Mutation(err.Error()).Wrap(err))
	}
	return Success(json.RawMessage(data))
}

// reason extracts a human-readable reason from a failed response.
func reason(status int, body []byte) string {
	var msg struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &msg) == nil {
		if msg.Message != "" {
			return msg.Message
		}
		if msg.Error != "" {
			return msg.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "{") {
		return text
	}
	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("%d %s", status, text)
	}
	return genericReason
}
