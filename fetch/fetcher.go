// Package fetch provides access to rendered page content.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"

	"teamform-scraper/expand"
	"teamform-scraper/log"
	"teamform-scraper/utils"
)

// FetchOpts bundles per-fetch instructions. ControlSelector locates the
// load-more control; when it is empty no expansion is performed.
type FetchOpts struct {
	ControlSelector string
	Expander        *expand.Expander
}

// Result is a fetched page plus how its expansion ended. Expansion is the
// zero value when no expansion was requested.
type Result struct {
	HTML      string
	Expansion expand.Result
}

// A Fetcher allows to fetch the content of a web page.
type Fetcher interface {
	Fetch(ctx context.Context, urlStr string, opts FetchOpts) (*Result, error)
	// Cancel releases the fetcher's resources, in particular the browser
	// process of the DynamicFetcher. It must be called on every exit path.
	Cancel()
}

type MockPage struct {
	Url     string `yaml:"url"`
	Content string `yaml:"content"`
}

// FetcherConfig defines the necessary parameters to make a new fetcher.
type FetcherConfig struct {
	Type           string     `yaml:"type" env:"FETCHER_TYPE" env-default:"dynamic"`
	UserAgent      string     `yaml:"user_agent" env:"FETCHER_USER_AGENT"`
	PageLoadWaitMS int        `yaml:"page_load_wait_ms" env:"FETCHER_PAGE_LOAD_WAIT_MS"`
	ProxyServer    string     `yaml:"proxy_server" env:"FETCHER_PROXY_SERVER"`
	DebugDir       string     `yaml:"debug_dir" env:"FETCHER_DEBUG_DIR"`
	MockPages      []MockPage `yaml:"mock_pages"`
}

const (
	DYNAMIC_FETCHER_TYPE = "dynamic"
	STATIC_FETCHER_TYPE  = "static"
	MOCK_FETCHER_TYPE    = "mock"
)

// New returns the fetcher matching fc.Type.
func New(fc *FetcherConfig) (Fetcher, error) {
	switch fc.Type {
	case DYNAMIC_FETCHER_TYPE, "":
		return NewDynamicFetcher(fc), nil
	case STATIC_FETCHER_TYPE:
		return NewStaticFetcher(fc), nil
	case MOCK_FETCHER_TYPE:
		return NewMockFetcher(fc), nil
	}
	return nil, fmt.Errorf("fetcher of type %s not implemented", fc.Type)
}

func writeHTMLToFile(ctx context.Context, urlStr, body, debugDir string) {
	logger := log.LoggerFromContext(ctx)
	if debugDir != "" {
		if err := os.MkdirAll(debugDir, os.ModePerm); err != nil {
			logger.Error(fmt.Sprintf("failed to create debug directory: %v", err))
			return
		}
	}
	u, _ := url.Parse(urlStr)
	r, err := utils.RandomString(u.Host)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to generate debug file name: %v", err))
		return
	}
	filename := path.Join(debugDir, fmt.Sprintf("%s.html", r))
	logger.Debug("writing html to file", slog.String("file", filename))
	if err := os.WriteFile(filename, []byte(body), 0644); err != nil {
		logger.Error(fmt.Sprintf("failed to write html file: %v", err))
	}
}
