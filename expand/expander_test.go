package expand

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakePage simulates a load-more control that disappears after a fixed
// number of successful activations.
type fakePage struct {
	clicksUntilGone int // -1 means the control never disappears
	failFirst       int // number of leading Activate calls that fail
	activations     int
	attempts        int
	visibleErr      error
}

func (p *fakePage) ControlVisible(ctx context.Context) (bool, error) {
	if p.visibleErr != nil {
		return false, p.visibleErr
	}
	if p.clicksUntilGone >= 0 && p.activations >= p.clicksUntilGone {
		return false, nil
	}
	return true, nil
}

func (p *fakePage) Activate(ctx context.Context) error {
	p.attempts++
	if p.attempts <= p.failFirst {
		return errors.New("control not clickable")
	}
	p.activations++
	return nil
}

func TestRunReachesCeiling(t *testing.T) {
	page := &fakePage{clicksUntilGone: -1}
	e := &Expander{MaxActivations: 5}
	res, err := e.Run(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeCapped {
		t.Errorf("expected outcome %s, got %s", OutcomeCapped, res.Outcome)
	}
	if res.Activations != 5 {
		t.Errorf("expected 5 activations, got %d", res.Activations)
	}
	if page.activations != 5 {
		t.Errorf("expected 5 clicks on the page, got %d", page.activations)
	}
}

func TestRunZeroMaxActivations(t *testing.T) {
	page := &fakePage{clicksUntilGone: -1}
	e := &Expander{MaxActivations: 0}
	res, err := e.Run(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeCapped {
		t.Errorf("expected outcome %s, got %s", OutcomeCapped, res.Outcome)
	}
	if res.Activations != 0 || page.attempts != 0 {
		t.Errorf("expected the page to be untouched, got %d activations, %d attempts", res.Activations, page.attempts)
	}
}

func TestRunStopsWhenControlDisappears(t *testing.T) {
	for _, k := range []int{0, 1, 3} {
		page := &fakePage{clicksUntilGone: k}
		e := &Expander{MaxActivations: 17}
		res, err := e.Run(context.Background(), page)
		if err != nil {
			t.Fatalf("k=%d: unexpected error: %v", k, err)
		}
		if res.Outcome != OutcomeExhausted {
			t.Errorf("k=%d: expected outcome %s, got %s", k, OutcomeExhausted, res.Outcome)
		}
		if res.Activations != k {
			t.Errorf("k=%d: expected exactly %d activations, got %d", k, k, res.Activations)
		}
	}
}

func TestRunAbortsAfterRetries(t *testing.T) {
	page := &fakePage{clicksUntilGone: -1, failFirst: 100}
	e := &Expander{MaxActivations: 17, ClickRetries: 2}
	res, err := e.Run(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeAborted {
		t.Errorf("expected outcome %s, got %s", OutcomeAborted, res.Outcome)
	}
	if res.Activations != 0 {
		t.Errorf("expected 0 activations, got %d", res.Activations)
	}
	if page.attempts != 3 {
		t.Errorf("expected 3 click attempts (1 + 2 retries), got %d", page.attempts)
	}
}

func TestRunRetryRecovers(t *testing.T) {
	page := &fakePage{clicksUntilGone: -1, failFirst: 1}
	e := &Expander{MaxActivations: 2, ClickRetries: 1}
	res, err := e.Run(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeCapped {
		t.Errorf("expected outcome %s, got %s", OutcomeCapped, res.Outcome)
	}
	if res.Activations != 2 {
		t.Errorf("expected 2 activations, got %d", res.Activations)
	}
	if page.attempts != 3 {
		t.Errorf("expected 3 click attempts, got %d", page.attempts)
	}
}

func TestRunProbeErrorIsFatal(t *testing.T) {
	probeErr := errors.New("browser gone")
	page := &fakePage{visibleErr: probeErr}
	e := &Expander{MaxActivations: 17}
	_, err := e.Run(context.Background(), page)
	if !errors.Is(err, probeErr) {
		t.Errorf("expected probe error to propagate, got %v", err)
	}
}

func TestRunCanceledDuringSettle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	page := &fakePage{clicksUntilGone: -1}
	e := &Expander{MaxActivations: 2, SettleWait: time.Minute}
	res, err := e.Run(ctx, page)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Activations != 1 {
		t.Errorf("expected 1 activation before cancellation, got %d", res.Activations)
	}
}
