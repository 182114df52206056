// Package fetch is the shared HTTP plumbing for the data sources: context
// aware GETs with conditional request support, so unchanged upstreams cost
// a 304 instead of a re-parse.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// UserAgent sent with every request.
const UserAgent = "infoboard/1.0"

// DefaultClient is used by sources that do not bring their own.
var DefaultClient = &http.Client{Timeout: 15 * time.Second}

// Client issues GET requests against one URL, carrying the validators from
// the previous response. Refreshes may overlap, so calls serialize.
type Client struct {
	// URL to fetch.
	URL string

	// HTTP is the underlying client, DefaultClient if nil.
	HTTP *http.Client

	mu           sync.Mutex
	etag         string
	lastModified string
}

// Get returns the body and true, or nil and false when the resource has not
// changed since the previous call.
func (c *Client) Get(ctx context.Context) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", UserAgent)
	if c.etag != "" {
		req.Header.Set("If-None-Match", c.etag)
	}
	if c.lastModified != "" {
		req.Header.Set("If-Modified-Since", c.lastModified)
	}

	client := c.HTTP
	if client == nil {
		client = DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("fetch %s: unexpected status %d", c.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}
	if etag := resp.Header.Get("ETag"); etag != "" {
		c.etag = etag
	}
	if last := resp.Header.Get("Last-Modified"); last != "" {
		c.lastModified = last
	}
	return body, true, nil
}

// GetJSON fetches the URL and decodes the body into v. Unchanged responses
// leave v alone and return false.
func (c *Client) GetJSON(ctx context.Context, v any) (bool, error) {
	body, changed, err := c.Get(ctx)
	if err != nil || !changed {
		return false, err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return false, fmt.Errorf("fetch %s: %w", c.URL, err)
	}
	return true, nil
}

// JSON issues a one-shot GET against url and decodes the body into v.
func JSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", UserAgent)

	if client == nil {
		client = DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	return nil
}

// PostJSON posts payload as a JSON body to url and decodes the response
// into v. Used for upstreams that only speak query-by-POST.
func PostJSON(ctx context.Context, client *http.Client, url string, payload, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Content-Type", "application/json")

	if client == nil {
		client = DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	reply, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(reply, v); err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	return nil
}
