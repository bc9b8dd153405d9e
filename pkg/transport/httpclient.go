package transport

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/richard-senior/nflodds/internal/logger"
)

// ClientOptions controls the shared HTTP client
type ClientOptions struct {
	Timeout      time.Duration // whole request timeout including body read
	CABundlePath string        // optional extra PEM bundle, e.g. a corporate proxy CA
	UserAgent    string
}

var (
	clientMu   sync.Mutex
	httpClient *http.Client
	options    = ClientOptions{
		Timeout:      60 * time.Second,
		CABundlePath: filepath.Join(os.Getenv("HOME"), ".ssh/zscaler_ca_bundle.pem"),
		UserAgent:    "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	}
)

// Configure replaces the client options and drops any cached client
func Configure(opts ClientOptions) {
	clientMu.Lock()
	defer clientMu.Unlock()
	if opts.Timeout > 0 {
		options.Timeout = opts.Timeout
	}
	if opts.CABundlePath != "" {
		options.CABundlePath = opts.CABundlePath
	}
	if opts.UserAgent != "" {
		options.UserAgent = opts.UserAgent
	}
	httpClient = nil
}

func rootCAs() *x509.CertPool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		logger.Warn("Failed to get system cert pool", err)
		pool = x509.NewCertPool()
	}
	if options.CABundlePath == "" {
		return pool
	}
	pem, err := os.ReadFile(options.CABundlePath)
	if err != nil {
		logger.Debug("No extra CA bundle at", options.CABundlePath)
		return pool
	}
	if ok := pool.AppendCertsFromPEM(pem); !ok {
		logger.Warn("Failed to append CA bundle", options.CABundlePath)
	} else {
		logger.Info("Added CA bundle to root CAs", options.CABundlePath)
	}
	return pool
}

// GetCustomHTTPClient returns the shared HTTP client, creating it on first use
func GetCustomHTTPClient() *http.Client {
	clientMu.Lock()
	defer clientMu.Unlock()
	if httpClient != nil {
		return httpClient
	}
	httpClient = &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: rootCAs()},
			Proxy:           http.ProxyFromEnvironment,
			// we decode ourselves so brotli is handled the same way as gzip
			DisableCompression: true,
		},
		Timeout: options.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			return nil
		},
	}
	return httpClient
}

// Get fetches url and returns the decoded body.
// Content-Encoding gzip, deflate and br are decoded, and a body that is itself
// a gzip file (such as a .csv.gz release asset) is decompressed as well
func Get(ctx context.Context, url string) ([]byte, error) {
	client := GetCustomHTTPClient()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	clientMu.Lock()
	ua := options.UserAgent
	clientMu.Unlock()
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,text/csv,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	reader, err := DecodeBody(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return data, nil
}

// StatusError is returned when the server answers with anything but 200
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s returned error status %d", e.URL, e.StatusCode)
}

// DecodeBody wraps r according to the Content-Encoding header, then sniffs
// for a gzip magic number so that gzip files served as octet-stream are unpacked
func DecodeBody(contentEncoding string, r io.ReadCloser) (io.ReadCloser, error) {
	var reader io.ReadCloser = r
	switch contentEncoding {
	case "gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		reader = gz
	case "deflate":
		reader = flate.NewReader(r)
	case "br":
		reader = io.NopCloser(brotli.NewReader(r))
	case "", "identity":
	default:
		logger.Warn("Unknown content encoding:", contentEncoding)
	}
	return gunzipIfCompressed(reader)
}

func gunzipIfCompressed(r io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err == nil && bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		logger.Debug("Payload is a gzip file, decompressing")
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip payload: %w", err)
		}
		return &stackedCloser{Reader: gz, closers: []io.Closer{gz, r}}, nil
	}
	return &stackedCloser{Reader: br, closers: []io.Closer{r}}, nil
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
