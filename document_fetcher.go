package main

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// FetchDocument fetches the raw text of a sitemap or robots.txt document.
// It expects a 2XX response, returning an error if the document is unreachable.
func FetchDocument(ctx context.Context, docURL *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/xml, text/xml, text/plain")

	client := http.Client{}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &httpError{StatusCode: resp.StatusCode, URL: docURL.String()}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// httpError represents an error that occurs when an HTTP request fails with a non-2XX status code.
type httpError struct {
	StatusCode int
	URL        string
}

// Error implements the error interface for httpError.
func (e *httpError) Error() string {
	return "HTTP error: " + http.StatusText(e.StatusCode) + " from " + e.URL
}
