// Package fetch - browser.go provides headless browser rendering for sources that only serve through a browser.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// MaxPreWait bounds how long a session waits for the XML viewer's pre element.
const MaxPreWait = 10 * time.Second

// DefaultNavigateTimeout bounds page navigation.
const DefaultNavigateTimeout = 30 * time.Second

// Renderer opens browser sessions. A nil Renderer disables the browser strategies.
type Renderer interface {
	Open(ctx context.Context) (Session, error)
}

// Session is one browser tab. It must be closed by whoever opened it.
type Session interface {
	Navigate(url string) error
	// WaitText waits up to timeout for selector to be present and returns its text content.
	WaitText(selector string, timeout time.Duration) (string, error)
	// DocumentMarkup returns the outer markup of the rendered document element.
	DocumentMarkup() (string, error)
	Close() error
}

// BrowserOptions configures the headless browser.
type BrowserOptions struct {
	Headless           bool
	NoSandbox          bool
	DisableDevShmUsage bool
	WindowWidth        int
	WindowHeight       int
	NavigateTimeout    time.Duration
	PreWait            time.Duration
}

// DefaultBrowserOptions returns options suited to constrained CI runners.
func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{
		Headless:           true,
		NoSandbox:          true,
		DisableDevShmUsage: true,
		WindowWidth:        1920,
		WindowHeight:       1080,
		NavigateTimeout:    DefaultNavigateTimeout,
		PreWait:            MaxPreWait,
	}
}

// EffectivePreWait clamps the configured pre wait to (0, MaxPreWait].
func (o BrowserOptions) EffectivePreWait() time.Duration {
	if o.PreWait <= 0 || o.PreWait > MaxPreWait {
		return MaxPreWait
	}
	return o.PreWait
}

func (o BrowserOptions) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", o.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", o.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", o.DisableDevShmUsage),
	)
	if o.WindowWidth > 0 && o.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(o.WindowWidth, o.WindowHeight))
	}
	return opts
}

// ChromeRenderer renders pages with a local Chrome/Chromium through chromedp.
type ChromeRenderer struct {
	options BrowserOptions
	logger  zerolog.Logger
}

// NewChromeRenderer creates a renderer. Requires Chrome/Chromium on the system at Open time.
func NewChromeRenderer(options BrowserOptions, logger zerolog.Logger) *ChromeRenderer {
	if options.NavigateTimeout <= 0 {
		options.NavigateTimeout = DefaultNavigateTimeout
	}
	return &ChromeRenderer{options: options, logger: logger}
}

// Open starts a browser and a tab bound to it.
func (r *ChromeRenderer) Open(ctx context.Context) (Session, error) {
	r.logger.Debug().
		Bool("headless", r.options.Headless).
		Int("width", r.options.WindowWidth).
		Int("height", r.options.WindowHeight).
		Msg("starting headless browser")

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, r.options.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser on the session context so later timeouts only cancel single actions.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &chromeSession{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{browserCancel, allocCancel},
		options: r.options,
		logger:  r.logger,
	}, nil
}

type chromeSession struct {
	ctx     context.Context
	cancels []context.CancelFunc
	options BrowserOptions
	logger  zerolog.Logger
	closed  bool
}

func (s *chromeSession) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.options.NavigateTimeout)
	defer cancel()

	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (s *chromeSession) WaitText(selector string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	var text string
	err := chromedp.Run(ctx,
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.Text(selector, &text, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("element %q not available: %w", selector, err)
	}
	return text, nil
}

func (s *chromeSession) DocumentMarkup() (string, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.options.NavigateTimeout)
	defer cancel()

	var markup string
	if err := chromedp.Run(ctx, chromedp.Evaluate(`document.documentElement.outerHTML`, &markup)); err != nil {
		return "", fmt.Errorf("failed to read document markup: %w", err)
	}

	s.logger.Debug().Int("bytes", len(markup)).Msg("rendered document")
	return markup, nil
}

func (s *chromeSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for _, cancel := range s.cancels {
		cancel()
	}
	s.logger.Debug().Msg("browser closed")
	return nil
}
