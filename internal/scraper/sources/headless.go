package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"job-pipeline-go/internal/config"
	"job-pipeline-go/internal/models"
	"job-pipeline-go/pkg/httpclient"
)

const (
	loginUserSelector   = "#username"
	loginPassSelector   = "#password"
	loginSubmitSelector = `button[type="submit"]`
)

// HeadlessStrategy renders the search page in a real browser. Every call
// launches its own browser and tears it down before returning.
type HeadlessStrategy struct {
	site   Site
	cfg    config.HeadlessConfig
	login  bool
	logger *slog.Logger
}

func NewHeadlessStrategy(site Site, cfg config.HeadlessConfig, logger *slog.Logger) *HeadlessStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &HeadlessStrategy{site: site, cfg: cfg, logger: logger}
}

// NewAuthHeadlessStrategy signs in with the configured credentials before
// loading the search page.
func NewAuthHeadlessStrategy(site Site, cfg config.HeadlessConfig, logger *slog.Logger) *HeadlessStrategy {
	h := NewHeadlessStrategy(site, cfg, logger)
	h.login = true
	return h
}

func (h *HeadlessStrategy) Name() models.StrategyName {
	if h.login {
		return models.StrategyHeadlessAuth
	}
	return models.StrategyHeadless
}

func (h *HeadlessStrategy) Acquire(ctx context.Context, q models.Query) (*models.RawContent, error) {
	target := h.site.SearchURL(q)

	var body string
	err := h.withPage(ctx, func(page *rod.Page) error {
		if h.login {
			if err := h.authenticate(ctx, page); err != nil {
				return err
			}
		}

		nav := page.Timeout(h.cfg.NavigateTimeout)
		if err := nav.Navigate(target); err != nil {
			return fmt.Errorf("navigate: %w", err)
		}
		if err := nav.WaitLoad(); err != nil {
			return fmt.Errorf("wait for load: %w", err)
		}

		if _, err := page.Timeout(h.cfg.SelectorWait).Element(h.cfg.ResultsSelector); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.logger.InfoContext(ctx, "results selector did not appear, continuing", "selector", h.cfg.ResultsSelector)
		}

		html, err := page.HTML()
		if err != nil {
			return fmt.Errorf("serialize page: %w", err)
		}
		body = html
		return nil
	})
	if err != nil {
		return nil, browserError(target, err)
	}

	h.logger.DebugContext(ctx, "rendered page", "strategy", h.Name(), "bytes", len(body))
	return content(h.Name(), models.ContentSearchPage, target, body)
}

// withPage owns the browser for the duration of fn. The process is killed
// on every return path, including context cancellation.
func (h *HeadlessStrategy) withPage(ctx context.Context, fn func(*rod.Page) error) error {
	l := launcher.New().
		Context(ctx).
		Headless(true).
		Set("no-sandbox").
		Set("disable-setuid-sandbox")
	if h.cfg.BrowserBin != "" {
		l = l.Bin(h.cfg.BrowserBin)
	}
	defer l.Cleanup()

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to browser: %w", err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			h.logger.DebugContext(ctx, "browser close failed", "err", err)
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      h.site.UserAgent,
		AcceptLanguage: h.site.AcceptLanguage,
	}); err != nil {
		return fmt.Errorf("set user agent: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             h.cfg.ViewportWidth,
		Height:            h.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}

	return fn(page)
}

func (h *HeadlessStrategy) authenticate(ctx context.Context, page *rod.Page) error {
	nav := page.Timeout(h.cfg.NavigateTimeout)
	if err := nav.Navigate(h.cfg.LoginURL); err != nil {
		return fmt.Errorf("navigate to login: %w", err)
	}
	if err := nav.WaitLoad(); err != nil {
		return fmt.Errorf("wait for login page: %w", err)
	}

	user, err := nav.Element(loginUserSelector)
	if err != nil {
		return fmt.Errorf("find username field: %w", err)
	}
	if err := user.Input(h.cfg.Username); err != nil {
		return fmt.Errorf("type username: %w", err)
	}

	pass, err := nav.Element(loginPassSelector)
	if err != nil {
		return fmt.Errorf("find password field: %w", err)
	}
	if err := pass.Input(h.cfg.Password); err != nil {
		return fmt.Errorf("type password: %w", err)
	}

	submit, err := nav.Element(loginSubmitSelector)
	if err != nil {
		return fmt.Errorf("find login button: %w", err)
	}
	wait := nav.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}
	wait()

	info, err := page.Info()
	if err != nil {
		return fmt.Errorf("read post-login url: %w", err)
	}
	if LoginRejected(info.URL, h.cfg.LoginURL) {
		return fmt.Errorf("%w: still on %s", ErrAuthFailed, info.URL)
	}

	h.logger.InfoContext(ctx, "signed in", "url", info.URL)
	return nil
}

// LoginRejected reports whether the page after submitting credentials is
// still the login page.
func LoginRejected(currentURL, loginURL string) bool {
	path := loginURL
	if u, err := url.Parse(loginURL); err == nil && u.Path != "" {
		path = u.Path
	}
	return strings.Contains(currentURL, path)
}

func browserError(target string, err error) error {
	var fe *httpclient.FetchError
	if errors.As(err, &fe) {
		return err
	}
	kind := httpclient.Classify(err)
	if errors.Is(err, ErrAuthFailed) {
		kind = httpclient.KindBlocked
	}
	return &httpclient.FetchError{Kind: kind, URL: target, Err: err}
}
