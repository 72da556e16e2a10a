package award

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// Response is what came back from the award endpoint.
type Response struct {
	Status     int
	StatusText string
	Headers    map[string]string
	Body       string
}

// Poster sends one JSON POST. The award flow needs nothing else from HTTP.
type Poster interface {
	PostJSON(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error)
}

// Client is a fasthttp-backed Poster. It never retries: a second POST could
// grant the award twice.
type Client struct {
	http    *fasthttp.Client
	timeout time.Duration
}

type Option func(*Client)

// WithTimeout bounds each call. Zero waits for as long as the context allows.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		http: &fasthttp.Client{
			Name:            "crossword-award",
			MaxConnsPerHost: 16,
			// A resent POST could grant the award twice.
			MaxIdemponentCallAttempts: 1,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(url)
	req.Header.SetContentType("application/json")
	for k, v := range headers {
		if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
			req.Header.Set(k, v)
		}
	}
	req.SetBody(body)

	var err error
	if dl, ok := c.deadline(ctx); ok {
		err = c.http.DoDeadline(req, resp, dl)
	} else {
		err = c.http.Do(req, resp)
	}
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", url, err)
	}

	out := &Response{
		Status:     resp.StatusCode(),
		StatusText: fasthttp.StatusMessage(resp.StatusCode()),
		Headers:    make(map[string]string),
		Body:       string(resp.Body()),
	}
	resp.Header.VisitAll(func(k, v []byte) {
		out.Headers[strings.ToLower(string(k))] = string(v)
	})
	return out, nil
}

// deadline picks the earlier of the context deadline and the client timeout.
func (c *Client) deadline(ctx context.Context) (time.Time, bool) {
	var dl time.Time
	if c.timeout > 0 {
		dl = time.Now().Add(c.timeout)
	}
	if ctxDL, ok := ctx.Deadline(); ok && (dl.IsZero() || ctxDL.Before(dl)) {
		dl = ctxDL
	}
	return dl, !dl.IsZero()
}
