package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client wraps interactions with the document extraction API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new extraction API client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ping checks if the remote extraction service is available.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", c.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("extractor returned status %d", resp.StatusCode)
	}
	return nil
}

type extractPageRequest struct {
	JobID   string `json:"job_id"`
	PageNum int    `json:"page_num"`
}

// ExtractPage requests extraction of a single 1-based page of a previously
// uploaded document. Callers treat any error as an empty page result; the
// merge step never sees a failed page.
func (c *Client) ExtractPage(ctx context.Context, jobID string, pageNum int) (PageExtractResult, error) {
	payload, err := json.Marshal(extractPageRequest{JobID: jobID, PageNum: pageNum})
	if err != nil {
		return PageExtractResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/v1/extract", c.baseURL), bytes.NewReader(payload))
	if err != nil {
		return PageExtractResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return PageExtractResult{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return PageExtractResult{}, fmt.Errorf("extract page %d failed with status %d", pageNum, resp.StatusCode)
	}

	var result PageExtractResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return PageExtractResult{}, err
	}
	result.JobID = jobID
	result.PageNum = pageNum
	return result, nil
}

// SKUMatch is a resolved catalogue identity for an item description.
type SKUMatch struct {
	SKUCode  string `json:"sku_code"`
	Category string `json:"category"`
}

// SKUClient wraps the SKU catalogue lookup API.
type SKUClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSKUClient constructs a catalogue lookup client.
func NewSKUClient(baseURL string, timeout time.Duration) *SKUClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SKUClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Lookup resolves a free-text item description against the catalogue.
// A 404 is the catalogue's explicit miss and returns ErrSKUNotFound;
// everything else non-2xx is a transport-level failure.
func (c *SKUClient) Lookup(ctx context.Context, description string) (SKUMatch, error) {
	endpoint := fmt.Sprintf("%s/v1/skus/resolve?q=%s", c.baseURL, url.QueryEscape(description))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return SKUMatch{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SKUMatch{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode == http.StatusNotFound {
		return SKUMatch{}, ErrSKUNotFound
	}
	if resp.StatusCode >= 400 {
		return SKUMatch{}, fmt.Errorf("sku lookup failed with status %d", resp.StatusCode)
	}

	var match SKUMatch
	if err := json.NewDecoder(resp.Body).Decode(&match); err != nil {
		return SKUMatch{}, err
	}
	return match, nil
}
