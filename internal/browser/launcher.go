// internal/browser/launcher.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/elemkit/internal/config"
	"github.com/xkilldash9x/elemkit/pkg/browser/cdp"
	pwdriver "github.com/xkilldash9x/elemkit/pkg/browser/playwright"
	"github.com/xkilldash9x/elemkit/pkg/browser/webdriver"
	"github.com/xkilldash9x/elemkit/pkg/interact"
)

const playwrightLaunchTimeout = 60 * time.Second

// Driver is an interact.Driver that can also load pages and be shut down.
// Every backend adapter satisfies it.
type Driver interface {
	interact.Driver
	Navigate(ctx context.Context, url string) error
	Close() error
}

// Session is an open browser plus everything that has to be torn down with it.
type Session struct {
	Driver

	backend    string
	navTimeout time.Duration
	logger     *zap.Logger
	cleanup    []func() error
}

// NewSession wraps an already open driver. cleanup runs in reverse order
// after the driver itself is closed.
func NewSession(backend string, d Driver, navTimeout time.Duration, logger *zap.Logger, cleanup ...func() error) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		Driver:     d,
		backend:    backend,
		navTimeout: navTimeout,
		logger:     logger.With(zap.String("backend", backend)),
		cleanup:    cleanup,
	}
}

// Backend reports which automation protocol drives the session.
func (s *Session) Backend() string { return s.backend }

// Navigate loads url, bounded by the configured navigation timeout.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if s.navTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.navTimeout)
		defer cancel()
	}
	s.logger.Debug("Navigating.", zap.String("url", url))
	return s.Driver.Navigate(ctx, url)
}

// Close shuts the driver down, then releases the browser process. All
// errors are reported.
func (s *Session) Close() error {
	errs := []error{s.Driver.Close()}
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		errs = append(errs, s.cleanup[i]())
	}
	s.cleanup = nil
	err := errors.Join(errs...)
	if err != nil {
		s.logger.Warn("Session closed with errors.", zap.Error(err))
	} else {
		s.logger.Debug("Session closed.")
	}
	return err
}

// Open starts a browser session on the configured backend. The session is
// bound to ctx for the cdp backend; cancelling ctx kills the browser.
func Open(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("browser")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Backend) {
	case config.BackendCDP, "":
		return openCDP(ctx, cfg, logger)
	case config.BackendWebDriver:
		return openWebDriver(ctx, cfg, logger)
	case config.BackendPlaywright:
		return openPlaywright(ctx, cfg, logger)
	}
	return nil, fmt.Errorf("unknown browser backend %q", cfg.Backend)
}

func openCDP(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if cfg.RemoteURL != "" {
		logger.Info("Connecting to remote browser.", zap.String("url", cfg.RemoteURL))
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
	} else {
		logger.Info("Launching local browser.", zap.Bool("headless", cfg.Headless))
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, execOptions(cfg)...)
	}

	drv, err := cdp.New(allocCtx, logger)
	if err != nil {
		allocCancel()
		return nil, err
	}
	return NewSession(config.BackendCDP, drv, cfg.NavigationTimeout, logger, func() error {
		allocCancel()
		return nil
	}), nil
}

// execOptions translates the browser section into chromedp allocator options.
// Args accept "flag" or "flag=value", with or without leading dashes.
func execOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	for _, arg := range cfg.Args {
		name, value, ok := parseFlag(arg)
		if !ok {
			continue
		}
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

func parseFlag(arg string) (string, interface{}, bool) {
	arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
	if arg == "" {
		return "", nil, false
	}
	name, value, hasValue := strings.Cut(arg, "=")
	if !hasValue {
		return name, true, true
	}
	return name, value, true
}

func openWebDriver(_ context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	args := append([]string(nil), cfg.Args...)
	if cfg.Headless {
		args = append(args, "--headless=new")
	}
	logger.Info("Starting WebDriver session.", zap.String("url", cfg.WebDriverURL), zap.String("browser", cfg.BrowserName))
	drv, err := webdriver.Dial(cfg.WebDriverURL, cfg.BrowserName, args, logger)
	if err != nil {
		return nil, err
	}
	return NewSession(config.BackendWebDriver, drv, cfg.NavigationTimeout, logger), nil
}

func openPlaywright(_ context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	logger.Info("Starting Playwright driver.")
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright driver: %w", err)
	}

	browser, err := pw.Chromium.Launch(launchOptions(cfg))
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser instance: %w", err)
	}
	page, err := browser.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	logger.Info("Browser launched.", zap.String("browser_version", browser.Version()))

	return NewSession(config.BackendPlaywright, pwdriver.New(page, logger), cfg.NavigationTimeout, logger,
		pw.Stop,
		func() error { return browser.Close() },
	), nil
}

func launchOptions(cfg config.BrowserConfig) playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args:     append([]string{"--disable-gpu", "--no-sandbox", "--disable-dev-shm-usage"}, cfg.Args...),
		Timeout:  playwright.Float(float64(playwrightLaunchTimeout / time.Millisecond)),
	}
	if cfg.ExecPath != "" {
		opts.ExecutablePath = playwright.String(cfg.ExecPath)
	}
	return opts
}
