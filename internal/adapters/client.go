package adapters

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"net/http"

	"golang.org/x/time/rate"
)

// Client wraps an HTTP client with optional request pacing. All adapter
// traffic goes through it so a population run can cap its request rate
// against upstream APIs.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a Client. A nil httpClient falls back to
// http.DefaultClient. requestsPerSecond <= 0 disables pacing.
func NewClient(httpClient *http.Client, requestsPerSecond float64) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{http: httpClient}
	if requestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return c
}

// get issues a GET and returns the response. Non-2xx responses are
// converted into a *FetchError with the body already closed.
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{URL: url, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// getJSON fetches url and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &FetchError{URL: url, Err: err}
	}
	return nil
}

// getXML fetches url and decodes the XML body into v.
func (c *Client) getXML(ctx context.Context, url string, v any) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := xml.NewDecoder(resp.Body).Decode(v); err != nil {
		return &FetchError{URL: url, Err: err}
	}
	return nil
}
