package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultMaxBodySize  = 20 << 20
	DefaultUserAgent    = "Transpod/1.0"

	acceptFeeds = "application/rss+xml, application/atom+xml, application/xml, text/xml;q=0.9, */*;q=0.8"
)

type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	maxBodySize int64
	userAgent   string
}

func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 5,
		},
	}
}

func NewFetcher(client *http.Client, timeout time.Duration, maxBodySize int64, userAgent string) *Fetcher {
	if client == nil {
		client = NewHTTPClient()
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Fetcher{
		client:      client,
		timeout:     timeout,
		maxBodySize: maxBodySize,
		userAgent:   userAgent,
	}
}

// Run GETs feedURL and returns the body of a 200 response. timeout overrides
// the fetcher's default when positive. Every error is a *FetchError.
func (f *Fetcher) Run(ctx context.Context, feedURL string, timeout time.Duration) (string, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return "", &FetchError{Kind: FetchTransport, URL: feedURL, Err: fmt.Errorf("invalid URL: %w", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &FetchError{Kind: FetchTransport, URL: feedURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}

	if timeout <= 0 {
		timeout = f.timeout
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, feedURL, nil)
	if err != nil {
		return "", &FetchError{Kind: FetchTransport, URL: feedURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptFeeds)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", f.requestError(feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{
			Kind:       FetchHTTPStatus,
			URL:        feedURL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	if resp.ContentLength > f.maxBodySize {
		return "", &FetchError{Kind: FetchTooLarge, URL: feedURL, Err: fmt.Errorf("content length %d exceeds %d bytes", resp.ContentLength, f.maxBodySize)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return "", f.requestError(feedURL, fmt.Errorf("failed to read response body: %w", err))
	}
	if int64(len(data)) > f.maxBodySize {
		return "", &FetchError{Kind: FetchTooLarge, URL: feedURL, Err: fmt.Errorf("body exceeds %d bytes", f.maxBodySize)}
	}

	return string(data), nil
}

func (f *Fetcher) requestError(feedURL string, err error) *FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Kind: FetchTimeout, URL: feedURL, Err: err}
	}
	return &FetchError{Kind: FetchTransport, URL: feedURL, Err: err}
}
