package gumroad

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"gumdl/pkg/config"
	apperrors "gumdl/pkg/errors"
	"gumdl/pkg/logger"
	"gumdl/pkg/ratelimit"
	"gumdl/pkg/retry"
)

// redirectMarker is the leading text of the interstitial page served to a
// logged-out session ("You are being redirected.").
const redirectMarker = "You are being"

// Client performs authenticated requests against the platform. It never
// follows redirects: the redirect-to-login interstitial must reach the
// parser so it can be reported as a session expiry.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    ratelimit.Limiter
	maxRetries int
	logger     logger.Logger
}

// NewClient builds a client from the gumroad config section. The session
// cookie value is percent-escaped the way the platform expects before being
// sent back.
func NewClient(cfg *config.GumroadConfig, maxRetries int, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	headers := map[string]string{
		"User-Agent": cfg.UserAgent,
	}

	var cookies []string
	if cfg.AppSession != "" {
		cookies = append(cookies, "_gumroad_app_session="+sanitizeCookieValue(cfg.AppSession))
	}
	if cfg.GUID != "" {
		cookies = append(cookies, "_gumroad_guid="+cfg.GUID)
	}
	if len(cookies) > 0 {
		headers["Cookie"] = strings.Join(cookies, "; ")
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		headers:    headers,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		limiter:    limiter,
		maxRetries: maxRetries,
		logger:     log,
	}
}

// sanitizeCookieValue escapes the characters the platform percent-encodes in
// its session cookie.
func sanitizeCookieValue(value string) string {
	value = strings.ReplaceAll(value, "+", "%2B")
	value = strings.ReplaceAll(value, "/", "%2F")
	value = strings.ReplaceAll(value, "=", "%3D")
	return value
}

// BaseURL returns the configured platform base URL, without trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authenticated reports whether the client carries session cookies
func (c *Client) Authenticated() bool {
	_, ok := c.headers["Cookie"]
	return ok
}

// doRequest performs a single HTTP GET with the configured headers
func (c *Client) doRequest(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &apperrors.Error{
			Type:    apperrors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    url,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &apperrors.Error{
			Type:    apperrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// checkResponseStatus maps non-success HTTP statuses onto the error taxonomy.
// Redirect statuses pass: their body is the interstitial the parser detects.
func (c *Client) checkResponseStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code < 400:
		return nil
	case code == http.StatusNotFound:
		return &apperrors.Error{Type: apperrors.ErrorTypeNotFound, Message: "resource not found", Code: code}
	case code >= 500 || code == http.StatusTooManyRequests:
		return &apperrors.Error{Type: apperrors.ErrorTypeServerError, Message: fmt.Sprintf("server returned status %d", code), Code: code}
	default:
		return &apperrors.Error{Type: apperrors.ErrorTypeUnknown, Message: fmt.Sprintf("unexpected status code: %d", code), Code: code}
	}
}

// GetDocument fetches a page and returns the parsed HTML document. The
// request is rate limited and retried on transient failures. A
// redirect-to-login interstitial is reported as an auth_redirect error.
func (c *Client) GetDocument(url string) (*html.Node, error) {
	if c.limiter != nil {
		c.limiter.Wait()
	}

	var doc *html.Node
	err := retry.Do(func() error {
		resp, err := c.doRequest(url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := c.checkResponseStatus(resp); err != nil {
			return err
		}

		parsed, err := html.Parse(resp.Body)
		if err != nil {
			return &apperrors.Error{
				Type:    apperrors.ErrorTypeParsing,
				Message: fmt.Sprintf("failed to parse page: %v", err),
				Code:    resp.StatusCode,
			}
		}
		doc = parsed
		return nil
	}, &retry.Config{
		MaxAttempts: c.maxRetries,
		Backoff:     retry.DefaultExponentialBackoff(),
		RetryIf:     retry.DefaultRetryIf,
		Context:     context.Background(),
		Logger:      c.logger,
	})
	if err != nil {
		return nil, err
	}

	if DetectRedirect(doc) {
		return nil, &apperrors.Error{
			Type:    apperrors.ErrorTypeAuthRedirect,
			Message: "redirected to the login page, the session has expired",
		}
	}

	return doc, nil
}

// GetStream issues a streamed GET and returns the body together with the
// declared content length. The caller owns the body. Streams are not
// retried; a failed file is re-fetched whole on the next run.
func (c *Client) GetStream(url string) (io.ReadCloser, int64, error) {
	if c.limiter != nil {
		c.limiter.Wait()
	}

	resp, err := c.doRequest(url)
	if err != nil {
		return nil, 0, err
	}

	if err := c.checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, 0, err
	}

	return resp.Body, resp.ContentLength, nil
}

// DetectRedirect reports whether the document is the redirect-to-login
// interstitial, judged by the leading text of its body.
func DetectRedirect(doc *html.Node) bool {
	root := doc
	if body := firstByTag(doc, "body"); body != nil {
		root = body
	}
	return strings.Contains(leadingText(root), redirectMarker)
}
