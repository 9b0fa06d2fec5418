package source

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/0x0BSoD/craigsBot/internal/model"
)

// CraigslistHTML scrapes the classic search result page. When the query asks
// for geotagged results every posting's detail page is fetched as the
// sequence reaches it.
type CraigslistHTML struct {
	BaseURL   string
	UserAgent string
	client    *http.Client
}

func NewCraigslistHTML(baseURL string, timeout time.Duration) *CraigslistHTML {
	return &CraigslistHTML{
		BaseURL:   baseURL,
		UserAgent: defaultUserAgent,
		client:    newHTTPClient(timeout),
	}
}

func (s *CraigslistHTML) Postings(ctx context.Context, q model.Query) iter.Seq2[model.Posting, error] {
	return func(yield func(model.Posting, error) bool) {
		doc, err := s.document(ctx, searchURL(baseURL(s.BaseURL, q.Site), q, ""))
		if err != nil {
			yield(model.Posting{}, fmt.Errorf("search page: %w", err))
			return
		}

		rows := doc.Find("li.result-row")
		for i := 0; i < rows.Length(); i++ {
			if q.Limit > 0 && i >= q.Limit {
				return
			}

			posting, err := parseRow(rows.Eq(i))
			if err == nil && q.Geotagged {
				posting.Geotag, err = s.geotag(ctx, posting.URL)
			}
			if !yield(posting, err) {
				return
			}
		}
	}
}

func parseRow(row *goquery.Selection) (model.Posting, error) {
	pid, ok := row.Attr("data-pid")
	if !ok {
		return model.Posting{}, fmt.Errorf("result row without data-pid")
	}
	id, err := strconv.ParseInt(strings.TrimSpace(pid), 10, 64)
	if err != nil {
		return model.Posting{}, fmt.Errorf("bad data-pid %q: %w", pid, err)
	}

	title := row.Find("a.result-title").First()
	link, _ := title.Attr("href")
	datetime, _ := row.Find("time.result-date").First().Attr("datetime")

	return model.Posting{
		ID:       id,
		URL:      link,
		Datetime: datetime,
		Name:     strings.TrimSpace(title.Text()),
		Price:    strings.TrimSpace(row.Find(".result-price").First().Text()),
		Where:    trimHood(row.Find(".result-hood").First().Text()),
		HasImage: row.Find("a.result-image.gallery").Length() > 0,
	}, nil
}

// trimHood turns " (Ann Arbor) " into "Ann Arbor".
func trimHood(hood string) string {
	hood = strings.TrimSpace(hood)
	hood = strings.TrimPrefix(hood, "(")
	hood = strings.TrimSuffix(hood, ")")
	return strings.TrimSpace(hood)
}

// geotag reads the map coordinates from a detail page. A page without a map
// is not an error.
func (s *CraigslistHTML) geotag(ctx context.Context, link string) (*model.Geotag, error) {
	doc, err := s.document(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("detail page: %w", err)
	}

	m := doc.Find("#map").First()
	lat, latOK := m.Attr("data-latitude")
	lon, lonOK := m.Attr("data-longitude")
	if !latOK || !lonOK {
		return nil, nil
	}

	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, nil
	}
	longitude, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, nil
	}

	return &model.Geotag{Lat: latitude, Lon: longitude}, nil
}

func (s *CraigslistHTML) document(ctx context.Context, link string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %d", link, resp.StatusCode)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}
