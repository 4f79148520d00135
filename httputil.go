package valuation

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
)

// contains http utils shared by the data providers.

// DiskCache implements a simple disk cache for HTTP responses.
//
// Entries are keyed by the current period, so the cache expires every day
// (or every month) without any cleanup.
type DiskCache struct {
	Base   http.RoundTripper
	Period Period // zero is daily
	Dir    string // os.TempDir when empty
	Logger arbor.ILogger
	// Accept reports whether a successful body may be cached, all are when nil.
	Accept func(body []byte) bool
}

// RoundTrip implements the http.RoundTripper interface. It checks for a cached
// response on disk first. If a fresh cached response is not found, it proceeds
// with the actual HTTP request and caches the new response if it's successful.
func (c *DiskCache) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	if req.Method != http.MethodGet {
		return c.base().RoundTrip(req)
	}
	start := Today().StartOf(c.Period)
	key := fmt.Sprintf("%s %s %s", start, req.Method, req.URL.String())
	key = fmt.Sprintf("val-%s-%x", c.Period, sha1.Sum([]byte(key)))

	cachedResp, err := c.get(key, req)
	if err == nil { // Cache hit
		c.logger().Debug().Str("path", req.URL.Path).Msg("cache hit")
		return cachedResp, nil
	}

	resp, err = c.base().RoundTrip(req)
	if err != nil {
		return nil, err
	}
	c.logger().Debug().Str("method", req.Method).Str("host", req.URL.Host).Str("path", req.URL.Path).Str("status", resp.Status).Msg("http")
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if c.Accept != nil {
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		resp.Body = io.NopCloser(bytes.NewReader(body))
		if !c.Accept(body) {
			c.logger().Debug().Str("path", req.URL.Path).Msg("response not cached")
			return resp, nil
		}
	}
	// otherwise attempt to store it in cache
	if err := c.put(key, resp); err != nil {
		c.logger().Warn().Err(err).Msg("cache write ignored")
	}
	return resp, nil
}

func (c *DiskCache) base() http.RoundTripper {
	if c.Base == nil {
		return http.DefaultTransport
	}
	return c.Base
}

func (c *DiskCache) logger() arbor.ILogger {
	if c.Logger == nil {
		return arbor.NewLogger()
	}
	return c.Logger
}

func (c *DiskCache) file(key string) string {
	dir := c.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, key)
}

// get retrieves a cached response from disk
func (c *DiskCache) get(key string, req *http.Request) (resp *http.Response, err error) {
	content, err := os.ReadFile(c.file(key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

// put stores a response to disk cache. The response body is read and
// restored by httputil.DumpResponse so the caller can still consume it.
func (c *DiskCache) put(key string, resp *http.Response) (err error) {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	f, err := os.Create(c.file(key))
	if err != nil {
		return err
	}
	_, err = f.Write(content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
