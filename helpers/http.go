package helpers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

// Browser-like headers sent with every outbound fetch. Some surplus
// auction sites serve stripped-down or blocked pages to obvious bots.
var (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	client = &http.Client{}
)

// FetchResult is the outcome of a completed HTTP exchange. A non-2xx
// status is reported here, not as an error; errors are reserved for
// requests that never completed (DNS, connect, timeout).
type FetchResult struct {
	StatusCode int
	Status     string
	Body       string
}

// OK reports whether the response carried a 2xx status.
func (r *FetchResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// FetchPage performs a GET with browser-like headers and a hard timeout,
// decoding the body to UTF-8 when the source uses another charset.
func FetchPage(ctx context.Context, url string, timeout time.Duration) (*FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-CA,en;q=0.9,fr-CA;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	body, err := toUTF8(bodyBytes, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	return &FetchResult{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}, nil
}

// toUTF8 converts a response body to UTF-8 based on its Content-Type and
// content sniffing.
func toUTF8(bodyBytes []byte, contentType string) (string, error) {
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return string(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return "", fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}
	return buf.String(), nil
}

// IsTimeout reports whether err represents a deadline/timeout failure as
// opposed to an ordinary network error.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
