package source

import (
	"context"
	"fmt"
	"html"
	"iter"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/SlyMarbo/rss"
	"github.com/samber/lo"

	"github.com/0x0BSoD/craigsBot/internal/model"
)

var (
	// "Oak desk (Ann Arbor) $500": name, optional hood, optional price.
	rssTitle = regexp.MustCompile(`^(.*?)\s*(?:\(([^()]*)\))?\s*(\$[\d,.]+)?\s*$`)
	postID   = regexp.MustCompile(`(\d+)\.html$`)
)

// CraigslistRSS reads the RSS rendition of a search. Geotags are not part of
// the feed, so Query.Geotagged is ignored.
type CraigslistRSS struct {
	BaseURL string
	timeout time.Duration
}

func NewCraigslistRSS(baseURL string, timeout time.Duration) *CraigslistRSS {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &CraigslistRSS{BaseURL: baseURL, timeout: timeout}
}

func (s *CraigslistRSS) Postings(ctx context.Context, q model.Query) iter.Seq2[model.Posting, error] {
	return func(yield func(model.Posting, error) bool) {
		feed, err := s.loadFeed(ctx, searchURL(baseURL(s.BaseURL, q.Site), q, "rss"))
		if err != nil {
			yield(model.Posting{}, fmt.Errorf("search feed: %w", err))
			return
		}

		items := feed.Items
		if q.Limit > 0 && len(items) > q.Limit {
			items = items[:q.Limit]
		}

		for _, item := range items {
			if !yield(postingFromItem(item)) {
				return
			}
		}
	}
}

func postingFromItem(item *rss.Item) (model.Posting, error) {
	link := strings.TrimSpace(item.Link)
	m := postID.FindStringSubmatch(link)
	if m == nil {
		return model.Posting{}, fmt.Errorf("no posting id in link %q", link)
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return model.Posting{}, fmt.Errorf("bad posting id in link %q: %w", link, err)
	}

	name, where, price := splitTitle(item.Title)

	var datetime string
	if !item.Date.IsZero() {
		datetime = item.Date.UTC().Format(time.RFC3339)
	}

	return model.Posting{
		ID:       id,
		URL:      link,
		Datetime: datetime,
		Name:     name,
		Price:    price,
		Where:    where,
		HasImage: item.Image != nil || len(lo.Filter(item.Enclosures, func(e *rss.Enclosure, _ int) bool {
			return strings.HasPrefix(e.Type, "image/")
		})) > 0,
	}, nil
}

func splitTitle(title string) (name, where, price string) {
	title = strings.TrimSpace(html.UnescapeString(title))
	m := rssTitle.FindStringSubmatch(title)
	if m == nil {
		return title, "", ""
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), m[3]
}

func (s *CraigslistRSS) loadFeed(ctx context.Context, url string) (*rss.Feed, error) {
	client := &http.Client{
		Transport: contextTransport{ctx: ctx, base: http.DefaultTransport},
		Timeout:   s.timeout,
	}
	return rss.FetchByClient(url, client)
}
