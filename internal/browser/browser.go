// Package browser implements the scanner's page driver with chromedp. Each
// Open launches an isolated headless browser that lives exactly as long as
// the session, so locations never share browsing state.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/example/dmv-monitor/internal/scanner"
)

// opTimeout bounds individual evaluate/click/read operations that carry no
// explicit wait budget of their own.
const opTimeout = 10 * time.Second

type Driver struct {
	logger   *zap.Logger
	pageLoad time.Duration
}

func New(logger *zap.Logger, pageLoadTimeout time.Duration) *Driver {
	return &Driver{logger: logger, pageLoad: pageLoadTimeout}
}

func (d *Driver) Open(ctx context.Context, url string) (scanner.Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(1280, 800),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	navCtx, cancelNav := context.WithTimeout(tabCtx, d.pageLoad)
	defer cancelNav()
	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}

	return &session{
		ctx:    tabCtx,
		cancel: func() { cancelTab(); cancelAlloc() },
	}, nil
}

type session struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *session) WaitForSelector(selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return nil
}

func (s *session) WaitForCondition(expr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Poll(expr, nil, chromedp.WithPollingTimeout(timeout))); err != nil {
		return fmt.Errorf("wait for condition: %w", err)
	}
	return nil
}

func (s *session) Evaluate(expr string, out any) error {
	ctx, cancel := context.WithTimeout(s.ctx, opTimeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

func (s *session) Click(selector string) error {
	ctx, cancel := context.WithTimeout(s.ctx, opTimeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

func (s *session) ReadText(selector string) (string, error) {
	ctx, cancel := context.WithTimeout(s.ctx, opTimeout)
	defer cancel()
	var text string
	if err := chromedp.Run(ctx, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read %q: %w", selector, err)
	}
	return text, nil
}

func (s *session) Settle(d time.Duration) {
	select {
	case <-time.After(d):
	case <-s.ctx.Done():
	}
}

func (s *session) Close() error {
	s.cancel()
	return nil
}
