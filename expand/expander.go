// Package expand implements the incremental-load controller that grows a
// paginated table by repeatedly activating its "load more" control.
package expand

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"teamform-scraper/log"
)

// Outcome is the terminal state of an expansion run.
type Outcome string

const (
	// OutcomeExhausted means the control disappeared before the ceiling was
	// reached, ie all available rows are loaded.
	OutcomeExhausted Outcome = "exhausted"
	// OutcomeCapped means the activation ceiling was reached.
	OutcomeCapped Outcome = "capped"
	// OutcomeAborted means activating the control kept failing. The rows
	// loaded up to that point are kept.
	OutcomeAborted Outcome = "aborted"
)

// Page is the minimal surface the expander needs from a rendered page.
type Page interface {
	// ControlVisible reports whether the load-more control is currently
	// present on the page.
	ControlVisible(ctx context.Context) (bool, error)
	// Activate clicks the load-more control.
	Activate(ctx context.Context) error
}

// An Expander reveals additional table rows by activating a load-more control
// up to MaxActivations times, waiting SettleWait after each activation for
// the newly requested rows to render. The fixed delay stands in for a
// readiness signal the site does not provide, so worst-case wall-clock time
// grows linearly with MaxActivations.
type Expander struct {
	MaxActivations int
	SettleWait     time.Duration
	ClickRetries   int
}

// Result describes how an expansion run ended.
type Result struct {
	Activations int
	Outcome     Outcome
}

// Run expands the page until the control disappears, the ceiling is reached
// or activation keeps failing. Errors from ControlVisible and a canceled
// context are fatal and propagate; activation errors are retried and then
// degrade to OutcomeAborted since a partially expanded table is still worth
// extracting.
func (e *Expander) Run(ctx context.Context, page Page) (Result, error) {
	logger := log.LoggerFromContext(ctx)
	res := Result{Outcome: OutcomeCapped}
	for i := 0; i < e.MaxActivations; i++ {
		visible, err := page.ControlVisible(ctx)
		if err != nil {
			return res, fmt.Errorf("probing load-more control: %w", err)
		}
		if !visible {
			logger.Debug("load-more control gone, all rows loaded", slog.Int("activations", res.Activations))
			res.Outcome = OutcomeExhausted
			return res, nil
		}
		if err := e.activate(ctx, page); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			logger.Warn(fmt.Sprintf("aborting expansion: %v", err), slog.Int("activations", res.Activations))
			res.Outcome = OutcomeAborted
			return res, nil
		}
		res.Activations++
		if err := e.settle(ctx); err != nil {
			return res, err
		}
	}
	logger.Debug("activation ceiling reached", slog.Int("activations", res.Activations))
	return res, nil
}

func (e *Expander) activate(ctx context.Context, page Page) error {
	var err error
	for attempt := 0; attempt <= e.ClickRetries; attempt++ {
		if err = page.Activate(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return fmt.Errorf("activating load-more control failed %d times: %w", e.ClickRetries+1, err)
}

func (e *Expander) settle(ctx context.Context) error {
	if e.SettleWait <= 0 {
		return nil
	}
	t := time.NewTimer(e.SettleWait)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
