package fetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"github.com/ishan19r/apt-hunt/utils"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ChromeFetcher drives a single headless (or headed, for inquiries) Chrome
// instance via chromedp. It implements both Fetcher and Browser. One
// instance equals one rendering session; callers serialise navigations.
type ChromeFetcher struct {
	logger   *utils.Logger
	limiter  *rate.Limiter
	allocCtx context.Context
	cancels  []context.CancelFunc
}

// NewChromeFetcher locates a Chrome binary and prepares an exec allocator.
// With headless=false the browser window stays visible so a human can
// review filled inquiry forms.
func NewChromeFetcher(chromeBin string, headless bool, minRequestGap time.Duration, logger *utils.Logger) *ChromeFetcher {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[chrome] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	silentCtx, cancelSilent := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	gap := minRequestGap
	if gap <= 0 {
		gap = time.Second
	}

	return &ChromeFetcher{
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Every(gap), 1),
		allocCtx: silentCtx,
		cancels:  []context.CancelFunc{cancelSilent, cancelAlloc},
	}
}

// Close tears down the browser allocator.
func (f *ChromeFetcher) Close() {
	for _, cancel := range f.cancels {
		cancel()
	}
}

// Fetch navigates to url, waits for any of the wait selectors, and returns
// the rendered HTML. A missing required element yields ErrTimeout.
func (f *ChromeFetcher) Fetch(ctx context.Context, url string, waitSelectors []string, timeout time.Duration) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	tabCtx, cancel := chromedp.NewContext(f.allocCtx)
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.Sleep(3 * time.Second),
	}
	if len(waitSelectors) > 0 {
		actions = append(actions, chromedp.WaitReady(strings.Join(waitSelectors, ", "), chromedp.ByQuery))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		if tabCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: %s", ErrTimeout, url)
		}
		return "", fmt.Errorf("chrome: fetch %s: %w", url, err)
	}
	return html, nil
}

// NewSession opens a dedicated tab for interactive use.
func (f *ChromeFetcher) NewSession(ctx context.Context) (Session, error) {
	tabCtx, cancel := chromedp.NewContext(f.allocCtx)

	// Launch the browser now so session acquisition failure surfaces here,
	// the one place it is fatal.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("chrome: open session: %w", err)
	}

	return &chromeSession{
		ctx:     tabCtx,
		cancel:  cancel,
		limiter: f.limiter,
	}, nil
}

type chromeSession struct {
	ctx     context.Context
	cancel  context.CancelFunc
	limiter *rate.Limiter
}

func (s *chromeSession) Navigate(url string) error {
	if err := s.limiter.Wait(s.ctx); err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(s.ctx, 60*time.Second)
	defer cancel()

	err := chromedp.Run(opCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(3*time.Second),
	)
	if err != nil {
		return fmt.Errorf("chrome: navigate %s: %w", url, err)
	}
	return nil
}

func (s *chromeSession) ClickFirst(selectors []string) (string, bool, error) {
	for _, sel := range selectors {
		present, err := s.exists(sel)
		if err != nil {
			return "", false, err
		}
		if !present {
			continue
		}

		opCtx, cancel := context.WithTimeout(s.ctx, 15*time.Second)
		err = chromedp.Run(opCtx,
			chromedp.Click(sel, chromedp.ByQuery),
			chromedp.Sleep(2*time.Second),
		)
		cancel()
		if err != nil {
			return "", false, fmt.Errorf("chrome: click %q: %w", sel, err)
		}
		return sel, true, nil
	}
	return "", false, nil
}

func (s *chromeSession) FillFirst(selectors []string, value string) (bool, error) {
	for _, sel := range selectors {
		present, err := s.exists(sel)
		if err != nil {
			return false, err
		}
		if !present {
			continue
		}

		opCtx, cancel := context.WithTimeout(s.ctx, 15*time.Second)
		err = chromedp.Run(opCtx,
			chromedp.Clear(sel, chromedp.ByQuery),
			chromedp.SendKeys(sel, value, chromedp.ByQuery),
		)
		cancel()
		if err != nil {
			return false, fmt.Errorf("chrome: fill %q: %w", sel, err)
		}
		return true, nil
	}
	return false, nil
}

func (s *chromeSession) exists(selector string) (bool, error) {
	opCtx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	var present bool
	script := "document.querySelector(" + strconv.Quote(selector) + ") !== null"
	if err := chromedp.Run(opCtx, chromedp.Evaluate(script, &present)); err != nil {
		return false, fmt.Errorf("chrome: probe %q: %w", selector, err)
	}
	return present, nil
}

func (s *chromeSession) Close() error {
	s.cancel()
	return nil
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
