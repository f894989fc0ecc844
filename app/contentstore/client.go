// Package contentstore is a thin client for the hosted content repository
// that backs posts and comments. It shapes GROQ read queries and
// create-document mutations and resolves image references to CDN URLs.
package contentstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"techporium/app/metrics"
)

// Config describes which project and dataset the client talks to.
type Config struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
	// BaseURL replaces the project API host, for tests and proxies.
	BaseURL string
	// CDNURL replaces the image CDN host.
	CDNURL     string
	HTTPClient *http.Client
}

// Client issues read queries and create-document calls against the content store.
type Client struct {
	cfg    Config
	http   *http.Client
	images *ImageBuilder
}

// New creates a Client. The HTTP client defaults to one without a timeout:
// the caller's context governs each call.
func New(cfg Config) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("contentstore: project id is required")
	}
	if cfg.Dataset == "" {
		return nil, errors.New("contentstore: dataset is required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2021-10-21"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		images: NewImageBuilder(cfg.ProjectID, cfg.Dataset, cfg.CDNURL),
	}, nil
}

// Images returns the image URL builder for the client's project and dataset.
func (c *Client) Images() *ImageBuilder {
	return c.images
}

// Query runs a GROQ query and decodes its result into out. Params are sent
// as $-prefixed JSON values. A null result leaves out at its zero value.
func (c *Client) Query(ctx context.Context, query string, params map[string]interface{}, out interface{}) (err error) {
	done := metrics.TrackContentStore("query")
	defer func() { done(err) }()

	values := url.Values{}
	values.Set("query", query)
	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("contentstore: encode param %s: %w", name, err)
		}
		values.Set("$"+name, string(encoded))
	}

	endpoint := c.endpoint(c.useCDN(), "query") + "?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("contentstore: build query request: %w", err)
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
	}
	if err := c.do(req, &resp); err != nil {
		return err
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("contentstore: decode query result: %w", err)
	}
	return nil
}

// Create writes a new document and returns its id.
func (c *Client) Create(ctx context.Context, doc interface{}) (id string, err error) {
	done := metrics.TrackContentStore("create")
	defer func() { done(err) }()

	body, err := json.Marshal(map[string]interface{}{
		"mutations": []interface{}{
			map[string]interface{}{"create": doc},
		},
	})
	if err != nil {
		return "", fmt.Errorf("contentstore: encode mutation: %w", err)
	}

	endpoint := c.endpoint(false, "mutate") + "?returnIds=true&returnDocuments=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("contentstore: build mutate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp struct {
		TransactionID string `json:"transactionId"`
		Results       []struct {
			ID        string `json:"id"`
			Operation string `json:"operation"`
		} `json:"results"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", fmt.Errorf("contentstore: mutation %s returned no results", resp.TransactionID)
	}
	return resp.Results[0].ID, nil
}

func (c *Client) useCDN() bool {
	// Authenticated reads must bypass the CDN, which serves only public data.
	return c.cfg.UseCDN && c.cfg.Token == ""
}

func (c *Client) endpoint(cdn bool, action string) string {
	base := c.cfg.BaseURL
	if base == "" {
		host := "api.sanity.io"
		if cdn {
			host = "apicdn.sanity.io"
		}
		base = "https://" + c.cfg.ProjectID + "." + host
	}
	version := c.cfg.APIVersion
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return strings.TrimRight(base, "/") + "/" + version + "/data/" + action + "/" + url.PathEscape(c.cfg.Dataset)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contentstore: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("contentstore: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("contentstore: decode response: %w", err)
	}
	return nil
}
