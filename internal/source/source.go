// Package source fetches postings from Craigslist search results, either by scraping the HTML result page or by reading its RSS feed.
package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/0x0BSoD/craigsBot/internal/model"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// contextTransport injects a context into every outgoing request so that
// context cancellation and deadlines propagate through the rss library.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// baseURL returns the site root. A non-empty override replaces the
// per-site craigslist.org host.
func baseURL(override, site string) string {
	if override != "" {
		return override
	}
	return fmt.Sprintf("https://%s.craigslist.org", site)
}

func searchURL(base string, q model.Query, format string) string {
	params := url.Values{}
	if q.SortBy == model.SortNewest {
		params.Set("sort", "date")
	}
	if q.MinPrice > 0 {
		params.Set("min_price", strconv.Itoa(q.MinPrice))
	}
	if q.MaxPrice > 0 {
		params.Set("max_price", strconv.Itoa(q.MaxPrice))
	}
	if q.HasImage {
		params.Set("hasPic", "1")
	}
	if format != "" {
		params.Set("format", format)
	}

	return fmt.Sprintf("%s/search/%s?%s", base, url.PathEscape(q.Category), params.Encode())
}
