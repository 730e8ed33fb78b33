// Package sdrclient is a small client of the SDR API.
//
// It knows about the base URL of the service and the bearer token of the
// user but nothing about the deposit workflow, which is driven by the deposit
// package through the Post and Put methods.
package sdrclient

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sul-dlss/sdr-client/version"

	"github.com/pkg/errors"
)

const defaultTimeout = 5 * time.Minute

// Client manages communication with the SDR API.
type Client struct {
	// HTTP client used to communicate with the API.
	client *http.Client

	// Base URL for API requests.
	BaseURL *url.URL

	// User agent for client.
	UserAgent string

	// Bearer token, empty when the user has not logged in yet.
	token string
}

// ClientOpt are options for New.
type ClientOpt func(*Client) error

// New returns a SDR API client. When httpClient is nil a client with a
// per-request timeout of five minutes is used.
func New(httpClient *http.Client, baseURL, token string, opts ...ClientOpt) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}
	if baseURL == "" {
		return nil, errors.New("service URL is empty")
	}
	bu, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "error processing service URL (%q)", baseURL)
	}
	c := &Client{
		client:    httpClient,
		BaseURL:   bu,
		UserAgent: version.AppVersion(),
		token:     token,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SetUserAgent is a client option for setting the user agent.
func SetUserAgent(ua string) ClientOpt {
	return func(c *Client) error {
		if ua != "" {
			c.UserAgent = ua
		}
		return nil
	}
}

// SetTimeout is a client option for setting the per-request timeout. Zero
// disables the timeout.
func SetTimeout(d time.Duration) ClientOpt {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("invalid timeout: %s", d)
		}
		c.client.Timeout = d
		return nil
	}
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ErrorResponse reports an unexpected response.
type ErrorResponse struct {
	Method   string
	URL      string
	Response *Response
}

func (r *ErrorResponse) Error() string {
	return fmt.Sprintf("%v %v: %d %s", r.Method, r.URL, r.Response.StatusCode, r.Response.Body)
}

// NewRequest creates an API request. A relative URL is resolved against the
// BaseURL of the Client, an absolute URL (e.g. a direct upload target) is
// used as is.
func (c *Client) NewRequest(ctx context.Context, method, urlStr string, body io.Reader, header http.Header) (*http.Request, error) {
	rel, err := url.Parse(urlStr)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing the URL string")
	}
	u := c.BaseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "error creating request")
	}

	req.Header.Set("User-Agent", c.UserAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	// net/http ignores the header, the length has to be in the request.
	if cl := req.Header.Get("Content-Length"); cl != "" {
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid Content-Length %q", cl)
		}
		req.ContentLength = n
		req.Header.Del("Content-Length")
	}

	return req, nil
}

// Do sends an API request and reads the whole response. A non-2xx status code
// is not an error here: callers decide which statuses they expect.
func (c *Client) Do(req *http.Request) (*Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	blob, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "error reading the response body")
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       blob,
	}, nil
}

func (c *Client) send(ctx context.Context, method, urlStr string, body io.Reader, header http.Header) (*Response, error) {
	req, err := c.NewRequest(ctx, method, urlStr, body, header)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, req.URL)
	}
	return resp, nil
}

// Post sends a POST request to the given path.
func (c *Client) Post(ctx context.Context, path string, body io.Reader, header http.Header) (*Response, error) {
	return c.send(ctx, http.MethodPost, path, body, header)
}

// Put sends a PUT request to the given URL.
func (c *Client) Put(ctx context.Context, urlStr string, body io.Reader, header http.Header) (*Response, error) {
	return c.send(ctx, http.MethodPut, urlStr, body, header)
}

// Get sends a GET request to the given path.
func (c *Client) Get(ctx context.Context, path string, header http.Header) (*Response, error) {
	return c.send(ctx, http.MethodGet, path, nil, header)
}
