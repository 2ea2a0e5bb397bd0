// internal/datasource/httpds/source.go

package httpds

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// Remote is a datasource.Source over one URL. Every Open issues a fresh GET.
type Remote struct {
	c   *Client
	url string
}

// NewRemote binds rawURL to c. A nil c uses NewClient(Config{}).
func NewRemote(c *Client, rawURL string) *Remote {
	if c == nil {
		c = NewClient(Config{})
	}
	return &Remote{c: c, url: rawURL}
}

// IsURL reports whether s names an http or https resource.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// URL returns the bound URL.
func (r *Remote) URL() string { return r.url }

// BaseName is the last path segment without its extension. URLs without a
// usable segment get a stable hash, e.g. "https://h/?q=1" -> "url_3f2a..".
func (r *Remote) BaseName() string {
	u, err := url.Parse(r.url)
	if err == nil {
		base := path.Base(u.Path)
		base = strings.TrimSuffix(base, path.Ext(base))
		if base != "" && base != "." && base != "/" {
			return base
		}
	}
	sum := sha1.Sum([]byte(r.url))
	return "url_" + hex.EncodeToString(sum[:4])
}

// Open streams the response body.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := r.c.Get(ctx, r.url, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// ReadHead returns up to n leading bytes. A Range header is sent, and the
// body is still capped for servers that ignore it.
func (r *Remote) ReadHead(ctx context.Context, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("httpds: n must be > 0")
	}
	h := make(http.Header)
	h.Set("Range", fmt.Sprintf("bytes=0-%d", n-1))

	resp, err := r.c.Get(ctx, r.url, h)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(&io.LimitedReader{R: resp.Body, N: int64(n)}); err != nil {
		return nil, fmt.Errorf("httpds: read %s: %w", r.url, err)
	}
	return buf.Bytes(), nil
}
