// Package remote fetches package version markers and manifests from the
// hosting servers of a package.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrTransport marks failures to reach a server or obtain a usable
	// response from it.
	ErrTransport = errors.New("remote transport failure")
	// ErrNotFound marks a 404 from every configured server.
	ErrNotFound = errors.New("remote file not found")
)

// Response limits per file type.
const (
	responseLimitVersion  = 4 << 10  // 4KB
	responseLimitHash     = 4 << 10  // 4KB
	responseLimitManifest = 64 << 20 // 64MB
)

// ClientOptions configures the remote client.
type ClientOptions struct {
	Timeout     time.Duration // HTTP client timeout (default 60s)
	MaxAttempts int           // retry attempts per server (default 3)
	Backoff     time.Duration // first retry delay, doubled per attempt (default 1s)
	// FallbackURL is tried when the main server cannot be reached.
	FallbackURL string
	// Token is sent as a Bearer credential. Empty falls back to the
	// ASSETPKG_TOKEN environment variable.
	Token string
	// DisableCacheBust stops appending a timestamp query to version
	// requests. CDNs otherwise may serve a stale version marker.
	DisableCacheBust bool
	HTTPClient       *http.Client
	Logger           *slog.Logger
}

// Client fetches hosted package files. Servers are tried in order: main,
// then fallback.
type Client struct {
	servers     []string
	httpClient  *http.Client
	token       string
	maxAttempts int
	backoff     time.Duration
	cacheBust   bool
	logger      *slog.Logger
}

// NewClient creates a client for the package files hosted under baseURL.
func NewClient(baseURL string, opts ClientOptions) (*Client, error) {
	main, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	servers := []string{main}
	if strings.TrimSpace(opts.FallbackURL) != "" {
		fallback, err := normalizeBaseURL(opts.FallbackURL)
		if err != nil {
			return nil, fmt.Errorf("fallback: %w", err)
		}
		if fallback != main {
			servers = append(servers, fallback)
		}
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		token = strings.TrimSpace(os.Getenv("ASSETPKG_TOKEN"))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		servers:     servers,
		httpClient:  httpClient,
		token:       token,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		cacheBust:   !opts.DisableCacheBust,
		logger:      logger,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("remote URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse remote URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("remote URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("remote URL must include a host")
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}

// VersionFileName is the hosted package version marker name.
func VersionFileName(packageName string) string {
	return fmt.Sprintf("PackageManifest_%s.version", packageName)
}

// ManifestFileName is the hosted binary manifest name for version.
func ManifestFileName(packageName, version string) string {
	return fmt.Sprintf("PackageManifest_%s_%s.bytes", packageName, version)
}

// HashFileName is the hosted manifest digest sidecar name for version.
func HashFileName(packageName, version string) string {
	return fmt.Sprintf("PackageManifest_%s_%s.hash", packageName, version)
}

// FetchPackageVersion returns the hosted package version marker.
func (c *Client) FetchPackageVersion(ctx context.Context, packageName string) (string, error) {
	query := ""
	if c.cacheBust {
		query = "t=" + strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	body, err := c.fetch(ctx, VersionFileName(packageName), query, responseLimitVersion)
	if err != nil {
		return "", fmt.Errorf("fetch package version %s: %w", packageName, err)
	}
	version := strings.TrimSpace(string(body))
	if version == "" {
		return "", fmt.Errorf("fetch package version %s: empty version file", packageName)
	}
	return version, nil
}

// FetchManifest returns the hosted binary manifest bytes for version.
func (c *Client) FetchManifest(ctx context.Context, packageName, version string) ([]byte, error) {
	body, err := c.fetch(ctx, ManifestFileName(packageName, version), "", responseLimitManifest)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest %s %s: %w", packageName, version, err)
	}
	return body, nil
}

// FetchManifestHash returns the hosted manifest digest sidecar for version.
func (c *Client) FetchManifestHash(ctx context.Context, packageName, version string) (string, error) {
	body, err := c.fetch(ctx, HashFileName(packageName, version), "", responseLimitHash)
	if err != nil {
		return "", fmt.Errorf("fetch manifest hash %s %s: %w", packageName, version, err)
	}
	return strings.TrimSpace(string(body)), nil
}

// fetch GETs name from each server in turn. A 404 from a server moves on
// to the next one, as does a transport failure; the last error wins.
func (c *Client) fetch(ctx context.Context, name, query string, limit int64) ([]byte, error) {
	var lastErr error
	for i, base := range c.servers {
		if i > 0 {
			c.logger.Warn("retrying on fallback server", "file", name, "server", base, "error", lastErr)
		}
		body, err := c.get(ctx, base+"/"+url.PathEscape(name), query, limit)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) get(ctx context.Context, rawURL, query string, limit int64) ([]byte, error) {
	if query != "" {
		rawURL += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Encoding", "zstd")
	c.applyAuth(req)

	resp, err := retryDo(c.httpClient, req, c.maxAttempts, c.backoff)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.URL.Path)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: %s %s: %s", ErrTransport, req.Method, req.URL.Path, http.StatusText(resp.StatusCode))
	}

	body, err := readBody(resp.Body, resp.Header.Get("Content-Encoding"), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrTransport, req.URL.Path, err)
	}
	return body, nil
}

func (c *Client) applyAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
