package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/muurk/navien/internal/logging"
)

const (
	// DefaultHost is the Navien relay server
	DefaultHost = "ukst.naviensmartcontrol.com"

	// DefaultBaseURL is the relay's HTTPS endpoint
	DefaultBaseURL = "https://" + DefaultHost

	// LoginPath authenticates a user and returns the encoded user token
	LoginPath = "/mobile_login_check.asp"

	// GatewayListPath returns the controller directory for a token
	GatewayListPath = "/mobile_gateway_list.asp"

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// maxBodySize bounds how much of a response body is read
	maxBodySize = 64 << 10
)

// Client metadata the relay expects on login
const (
	BundleVersion = "8"
	AutoLogin     = "1"
	SmartphoneID  = "2"
	Ticket        = "0"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the relay's login and gateway directory endpoints.
// It holds no login state; the token returned by Login is passed back by
// the caller.
type Client struct {
	// BaseURL is the relay base URL (default: https://ukst.naviensmartcontrol.com)
	BaseURL string

	// HTTPClient sends every request
	HTTPClient Doer

	// Headers are applied to every request. The default sets an empty
	// User-Agent, which suppresses the header entirely.
	Headers http.Header
}

// DefaultHeaders returns the header override used by NewClient
func DefaultHeaders() http.Header {
	return http.Header{"User-Agent": []string{""}}
}

// NewClient creates a relay client for the default relay host
func NewClient() *Client {
	return NewClientWithURL(DefaultBaseURL)
}

// NewClientWithURL creates a relay client for a custom base URL
// (e.g. an httptest server)
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		Headers:    DefaultHeaders(),
	}
}

// SetTimeout sets the HTTP request timeout when HTTPClient is an *http.Client
func (c *Client) SetTimeout(timeout time.Duration) {
	if hc, ok := c.HTTPClient.(*http.Client); ok {
		hc.Timeout = timeout
	}
}

// Login authenticates userID and returns the encoded user token
func (c *Client) Login(ctx context.Context, userID, password string) (string, error) {
	form := url.Values{
		"UserID":        {userID},
		"Passwd":        {password},
		"BundleVersion": {BundleVersion},
		"AutoLogin":     {AutoLogin},
		"smartphoneID":  {SmartphoneID},
	}

	body, err := c.post(ctx, LoginPath, form, "Passwd")
	if err != nil {
		return "", err
	}

	outcome, err := Interpret(body)
	if err != nil {
		return "", err
	}
	if !outcome.Classified {
		return "", &Error{
			Kind:    KindMalformedResponse,
			Message: fmt.Sprintf("login response without success code: %q", strings.Join(outcome.Fields, FieldSeparator)),
		}
	}

	return outcome.Payload, nil
}

// GatewayList looks up the controller registered to token
func (c *Client) GatewayList(ctx context.Context, token string) (*Gateway, error) {
	form := url.Values{
		"UserID": {token},
		"Ticket": {Ticket},
	}

	body, err := c.post(ctx, GatewayListPath, form, "UserID")
	if err != nil {
		return nil, err
	}

	outcome, err := Interpret(body)
	if err != nil {
		return nil, err
	}

	fields := outcome.Fields
	if outcome.Classified {
		fields = []string{outcome.Payload}
	}

	return parseGateway(fields)
}

// post sends a form-encoded POST and returns the response body. Form values
// named in redact are hidden from debug logs.
func (c *Client) post(ctx context.Context, path string, form url.Values, redact ...string) (string, error) {
	endpoint := c.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &Error{Kind: KindNetwork, Message: "failed to create request", Err: err}
	}
	for k, v := range c.Headers {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	logging.LogRelayRequest(req.Method, endpoint, form, redact...)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", classifyTransportError("relay request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", classifyTransportError("failed to read relay response", err)
	}

	logging.LogRelayResponse(endpoint, resp.StatusCode, len(data))

	if resp.StatusCode != http.StatusOK {
		return "", &Error{
			Kind:       KindHTTP,
			Message:    fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	return string(data), nil
}
