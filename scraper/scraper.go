// Package scraper turns rendered ranking pages into structured record sets.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/agnivade/levenshtein"
	"golang.org/x/net/html"

	"teamform-scraper/expand"
	"teamform-scraper/fetch"
	"teamform-scraper/log"
	"teamform-scraper/types"
)

var (
	// ErrUnsupportedCategory is returned for categories without scraping rules.
	ErrUnsupportedCategory = errors.New("unsupported category")
	// ErrTableNotFound is returned when the ranking table is absent from the
	// page. There is nothing to extract for that period.
	ErrTableNotFound = errors.New("ranking table not found")
)

// rules holds the per-category selectors and URL layout. The category set is
// closed; adding a category means adding its rules here.
type rules struct {
	periodSelector  string
	controlSelector string
	tableSelector   string
	urlFormat       string
}

var categoryRules = map[types.Category]rules{
	types.CategoryLeague: {
		periodSelector:  "#sbWeek",
		controlSelector: "#rankBtn",
		tableSelector:   "#rankTable",
		urlFormat:       "%s/%d/q%d",
	},
}

// Scraper defines how one ranking category is scraped. Columns names the
// table columns to keep; when empty, every header column is kept.
type Scraper struct {
	Category       types.Category `yaml:"category" env:"SCRAPER_CATEGORY" env-default:"league"`
	URL            string         `yaml:"url" env:"SCRAPER_URL" env-default:"https://www.teamform.com/en/league-ranking/world"`
	Columns        []string       `yaml:"columns"`
	MaxActivations int            `yaml:"max_activations" env:"SCRAPER_MAX_ACTIVATIONS" env-default:"17"`
	SettleWaitMS   int            `yaml:"settle_wait_ms" env:"SCRAPER_SETTLE_WAIT_MS" env-default:"17000"`
	ClickRetries   int            `yaml:"click_retries" env:"SCRAPER_CLICK_RETRIES" env-default:"2"`
}

func (s *Scraper) rules() (rules, error) {
	r, ok := categoryRules[s.Category]
	if !ok {
		return rules{}, fmt.Errorf("%w: %s", ErrUnsupportedCategory, s.Category)
	}
	return r, nil
}

// PeriodURL returns the page address of one period's snapshot.
func (s *Scraper) PeriodURL(p types.Period) (string, error) {
	r, err := s.rules()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(r.urlFormat, strings.TrimRight(s.URL, "/"), p.Week, p.Quarter), nil
}

// Periods fetches the landing page and enumerates the selectable periods
// from the week dropdown, ordered by week then quarter.
func (s *Scraper) Periods(ctx context.Context, f fetch.Fetcher) ([]types.Period, error) {
	logger := log.LoggerFromContext(ctx)
	r, err := s.rules()
	if err != nil {
		return nil, err
	}
	res, err := f.Fetch(ctx, s.URL, fetch.FetchOpts{})
	if err != nil {
		return nil, fmt.Errorf("fetching period list: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.HTML))
	if err != nil {
		return nil, err
	}
	sel := doc.Find(r.periodSelector)
	if sel.Length() == 0 {
		return nil, fmt.Errorf("period dropdown %s not found", r.periodSelector)
	}
	var periods []types.Period
	sel.Find("option").Each(func(_ int, o *goquery.Selection) {
		p, err := types.ParsePeriodOption(nodeText(o))
		if err != nil {
			logger.Warn(fmt.Sprintf("skipping period option: %v", err))
			return
		}
		periods = append(periods, p)
	})
	if len(periods) == 0 {
		return nil, fmt.Errorf("no periods found in dropdown %s", r.periodSelector)
	}
	types.SortPeriods(periods)
	return periods, nil
}

// Result is one period's scraping outcome.
type Result struct {
	Records     types.RecordSet
	Expansion   expand.Result
	SkippedRows int
}

// ScrapePeriod expands and extracts the ranking table for one period.
func (s *Scraper) ScrapePeriod(ctx context.Context, f fetch.Fetcher, p types.Period) (*Result, error) {
	r, err := s.rules()
	if err != nil {
		return nil, err
	}
	urlStr, err := s.PeriodURL(p)
	if err != nil {
		return nil, err
	}
	exp := &expand.Expander{
		MaxActivations: s.MaxActivations,
		SettleWait:     time.Duration(s.SettleWaitMS) * time.Millisecond,
		ClickRetries:   s.ClickRetries,
	}
	res, err := f.Fetch(ctx, urlStr, fetch.FetchOpts{ControlSelector: r.controlSelector, Expander: exp})
	if err != nil {
		return nil, fmt.Errorf("fetching period %s: %w", p, err)
	}
	rs, skipped, err := s.extractTable(ctx, r, res.HTML)
	if err != nil {
		return nil, err
	}
	return &Result{Records: rs, Expansion: res.Expansion, SkippedRows: skipped}, nil
}

// extractTable converts the rendered table into a record set. The header row
// is read once and provides the field names; rows with fewer cells than the
// header are skipped so misaligned columns cannot propagate downstream.
// Duplicate and all-empty rows are dropped.
func (s *Scraper) extractTable(ctx context.Context, r rules, htmlStr string) (types.RecordSet, int, error) {
	logger := log.LoggerFromContext(ctx)
	var rs types.RecordSet
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return rs, 0, err
	}
	table := doc.Find(r.tableSelector).First()
	if table.Length() == 0 {
		return rs, 0, fmt.Errorf("%w: selector %s", ErrTableNotFound, r.tableSelector)
	}
	rows := table.Find("tr")
	if rows.Length() == 0 {
		return rs, 0, fmt.Errorf("%w: table has no header row", ErrTableNotFound)
	}

	var header []string
	rows.First().Find("th, td").Each(func(_ int, c *goquery.Selection) {
		header = append(header, nodeText(c))
	})

	wanted := s.Columns
	if len(wanted) == 0 {
		wanted = header
	}
	var indices []int
	for _, col := range wanted {
		i := matchColumn(col, header)
		if i < 0 {
			logger.Warn(fmt.Sprintf("column %q not found in table header %v", col, header))
			continue
		}
		rs.Columns = append(rs.Columns, col)
		indices = append(indices, i)
	}
	if len(rs.Columns) == 0 {
		return rs, 0, fmt.Errorf("none of the columns %v match the table header %v", wanted, header)
	}

	skipped := 0
	seen := map[string]bool{}
	rows.Slice(1, rows.Length()).Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < len(header) {
			skipped++
			logger.Warn(fmt.Sprintf("skipping malformed row %d: %d cells but header has %d", i+1, cells.Length(), len(header)))
			return
		}
		rec := types.Record{}
		values := make([]string, len(rs.Columns))
		empty := true
		for j, col := range rs.Columns {
			v := nodeText(cells.Eq(indices[j]))
			rec[col] = v
			values[j] = v
			if v != "" {
				empty = false
			}
		}
		if empty {
			return
		}
		key := strings.Join(values, "\x1f")
		if seen[key] {
			return
		}
		seen[key] = true
		rs.Records = append(rs.Records, rec)
	})
	return rs, skipped, nil
}

// matchColumn finds the header cell naming the wanted column. Comparison is
// case-insensitive and tolerates an edit distance of up to 2, so minor
// relabeling on the site does not break extraction.
func matchColumn(name string, header []string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	best, bestDist := -1, 3
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == name {
			return i
		}
		if d := levenshtein.ComputeDistance(name, h); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// nodeText returns the trimmed text content of a selection, including text
// inside nested elements.
func nodeText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		collectText(n, &b)
	}
	return strings.TrimSpace(b.String())
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
