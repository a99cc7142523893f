package figma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://api.figma.com"

	// maxExportSize bounds a single SVG download.
	maxExportSize = 10 << 20 // 10 MB

	requestTimeout = 30 * time.Second
)

// Client is a Figma REST API client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL (tests).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a Figma API client authenticated with a personal
// access token.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type fileResponse struct {
	Name     string `json:"name"`
	Document *Node  `json:"document"`
}

type imagesResponse struct {
	Err    string            `json:"err"`
	Images map[string]string `json:"images"`
}

// File fetches the full document tree of a Figma file.
func (c *Client) File(ctx context.Context, key string) (*Node, error) {
	var out fileResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/v1/files/%s", c.baseURL, url.PathEscape(key)), &out); err != nil {
		return nil, fmt.Errorf("figma: fetch file %s: %w", key, err)
	}
	if out.Document == nil {
		return nil, fmt.Errorf("figma: file %s has no document", key)
	}
	return out.Document, nil
}

// ExportSVG renders a single node as SVG and downloads the result.
func (c *Client) ExportSVG(ctx context.Context, key, nodeID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/v1/images/%s?ids=%s&format=svg",
		c.baseURL, url.PathEscape(key), url.QueryEscape(nodeID))

	var out imagesResponse
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return nil, fmt.Errorf("figma: render %s: %w", nodeID, err)
	}
	if out.Err != "" {
		return nil, fmt.Errorf("figma: render %s: %s", nodeID, out.Err)
	}
	imageURL := out.Images[nodeID]
	if imageURL == "" {
		return nil, fmt.Errorf("figma: render %s: no image URL returned", nodeID)
	}

	// The render URL is a pre-signed storage link; no token header needed.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("figma: download %s: %w", nodeID, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("figma: download %s: %w", nodeID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("figma: download %s: HTTP %d", nodeID, resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, maxExportSize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("figma: download %s: read body: %w", nodeID, err)
	}
	if len(data) > maxExportSize {
		return nil, fmt.Errorf("figma: download %s: exceeds %d bytes", nodeID, maxExportSize)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Figma-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(io.LimitReader(resp.Body, maxExportSize)).Decode(out)
}

// FileSession binds a client to one Figma file so that callers can
// depend on a key-free interface.
type FileSession struct {
	client *Client
	key    string
}

// Session creates a FileSession for the given file key.
func (c *Client) Session(key string) *FileSession {
	return &FileSession{client: c, key: key}
}

// Document fetches the file's document tree.
func (s *FileSession) Document(ctx context.Context) (*Node, error) {
	return s.client.File(ctx, s.key)
}

// ExportSVG renders one node of the file as SVG.
func (s *FileSession) ExportSVG(ctx context.Context, nodeID string) ([]byte, error) {
	return s.client.ExportSVG(ctx, s.key, nodeID)
}
