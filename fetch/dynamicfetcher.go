package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"

	"teamform-scraper/config"
	"teamform-scraper/expand"
	"teamform-scraper/log"
)

// The DynamicFetcher renders js
type DynamicFetcher struct {
	*FetcherConfig
	allocContext context.Context
	cancelAlloc  context.CancelFunc
}

func NewDynamicFetcher(fc *FetcherConfig) *DynamicFetcher {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(1920, 1080), // init with a desktop view (sometimes pages look different on mobile, eg buttons are missing)
	)
	if fc.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(fc.UserAgent))
	}
	if fc.ProxyServer != "" {
		opts = append(opts, chromedp.ProxyServer(fc.ProxyServer))
	}
	allocContext, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	d := &DynamicFetcher{
		FetcherConfig: fc,
		allocContext:  allocContext,
		cancelAlloc:   cancelAlloc,
	}
	if d.PageLoadWaitMS == 0 {
		d.PageLoadWaitMS = 2000 // default
	}
	return d
}

func (d *DynamicFetcher) Cancel() {
	d.cancelAlloc()
}

// chromePage adapts a chromedp tab to expand.Page.
type chromePage struct {
	selector string
}

func (p chromePage) ControlVisible(ctx context.Context) (bool, error) {
	var nodes []*cdp.Node
	if err := chromedp.Nodes(p.selector, &nodes, chromedp.AtLeast(0)).Do(ctx); err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

func (p chromePage) Activate(ctx context.Context) error {
	var nodes []*cdp.Node
	if err := chromedp.Nodes(p.selector, &nodes, chromedp.AtLeast(0)).Do(ctx); err != nil {
		return err
	}
	if len(nodes) == 0 {
		return errors.New("load-more control gone")
	}
	return chromedp.MouseClickNode(nodes[0]).Do(ctx)
}

func (d *DynamicFetcher) Fetch(ctx context.Context, urlStr string, opts FetchOpts) (*Result, error) {
	logger := log.LoggerFromContext(ctx).With(slog.String("fetcher", "dynamic"), slog.String("url", urlStr))
	logger.Debug("fetching page", slog.String("user-agent", d.UserAgent))
	tabCtx, cancel := chromedp.NewContext(d.allocContext)
	defer cancel()
	tabCtx = log.ContextWithLogger(tabCtx, logger)

	actions := []chromedp.Action{}

	// log chrome version in debug mode
	if config.Debug {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			protocolVersion, product, revision, userAgent, jsVersion, err := browser.GetVersion().Do(ctx)
			if err != nil {
				logger.Warn("failed to get chrome version", slog.String("err", err.Error()))
				return nil
			}
			logger.Debug(fmt.Sprintf("chrome version: protocolVersion=%s, product=%s, revision=%s, userAgent=%s, jsVersion=%s",
				protocolVersion, product, revision, userAgent, jsVersion))
			return nil
		}))
	}

	var body string
	var expansion expand.Result
	sleepTime := time.Duration(d.PageLoadWaitMS) * time.Millisecond
	actions = append(actions,
		chromedp.Navigate(urlStr),
		chromedp.Sleep(sleepTime),
	)
	logger.Debug(fmt.Sprintf("appended chrome actions: Navigate, Sleep(%v)", sleepTime))
	if opts.ControlSelector != "" && opts.Expander != nil {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			expansion, err = opts.Expander.Run(ctx, chromePage{selector: opts.ControlSelector})
			return err
		}))
		logger.Debug(fmt.Sprintf("appended chrome actions: ActionFunc (expand %s, max %d)",
			opts.ControlSelector, opts.Expander.MaxActivations))
	}
	actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
		node, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		body, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	}))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return nil, err
	}

	if config.Debug {
		writeHTMLToFile(tabCtx, urlStr, body, d.DebugDir)
	}
	return &Result{HTML: body, Expansion: expansion}, nil
}
