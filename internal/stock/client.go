package stock

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"restockbot/pkg/logx"
)

const defaultBaseURL = "https://api.snormax.com/stock/bestbuy"

// The endpoint is meant for the Snormax web UI, so requests carry
// browser-like headers.
var requestHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "en-US,en;q=0.9",
	"Referer":         "https://www.snormax.com/",
	"Origin":          "https://www.snormax.com",
}

type Client struct {
	baseURL string
	http    *http.Client
	log     logx.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logx.Logger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Check queries availability for one (sku, zip) pair.
func (c *Client) Check(ctx context.Context, sku, zip string) (*Availability, error) {
	q := url.Values{}
	q.Set("sku", sku)
	q.Set("zip", zip)
	endpoint := c.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &APIError{SKU: sku, Zip: zip, Err: err}
	}
	for k, v := range requestHeaders {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{SKU: sku, Zip: zip, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("stock request complete",
		logx.String("sku", sku),
		logx.String("zip", zip),
		logx.Int("status", resp.StatusCode),
		logx.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &APIError{SKU: sku, Zip: zip, Status: resp.StatusCode}
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &APIError{SKU: sku, Zip: zip, Err: err}
	}
	return parseAvailability(&payload, sku, zip), nil
}
