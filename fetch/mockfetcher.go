package fetch

import (
	"context"
	"errors"

	"teamform-scraper/config"
	"teamform-scraper/expand"
)

type MockFetcher struct {
	*FetcherConfig
	pagesMap map[string]string
	// Expansion is returned unchanged from Fetch, letting tests stage the
	// terminal state of an expansion run.
	Expansion expand.Result
}

func NewMockFetcher(fc *FetcherConfig) *MockFetcher {
	mf := &MockFetcher{
		FetcherConfig: fc,
		pagesMap:      map[string]string{},
	}
	for _, p := range fc.MockPages {
		mf.pagesMap[p.Url] = p.Content
	}
	return mf
}

func (mf *MockFetcher) Fetch(ctx context.Context, urlStr string, opts FetchOpts) (*Result, error) {
	if p, ok := mf.pagesMap[urlStr]; ok {
		if config.Debug {
			writeHTMLToFile(ctx, urlStr, p, mf.DebugDir)
		}
		return &Result{HTML: p, Expansion: mf.Expansion}, nil
	}
	return nil, errors.New("page not found")
}

// To comply with the Fetcher interface
func (mf *MockFetcher) Cancel() {}
