package httpclient

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("jobpipeline/httpclient")

// Response is a completed 2xx response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       string
	Elapsed    time.Duration
}

// Options configures a HttpClient.
type Options struct {
	// CloudflareBypass wraps the impersonating client's transport with
	// cloudflare-bp-go's TLS and header adjustments.
	CloudflareBypass bool
	Logger           *slog.Logger
}

// HttpClient performs single outbound requests. It never retries; retry
// policy belongs to the caller.
type HttpClient struct {
	browser *resty.Client
	plain   *resty.Client
	logger  *slog.Logger
}

func NewHttpClient(opts Options) *HttpClient {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	browser := resty.New()
	if jar, err := cookiejar.New(nil); err == nil {
		browser.SetCookieJar(jar)
	}
	if opts.CloudflareBypass {
		browser.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(browser.GetClient().Transport)
	}

	return &HttpClient{
		browser: browser,
		plain:   resty.New(),
		logger:  logger,
	}
}

// Fetch issues a GET with the given header profile, bounded by timeout.
// Non-2xx responses and transport failures come back as *FetchError.
func (h *HttpClient) Fetch(ctx context.Context, url string, profile HeaderProfile, timeout time.Duration) (*Response, error) {
	ctx, span := tracer.Start(ctx, "httpclient.Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("url", url),
		attribute.String("profile", profile.Name),
	)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	client := h.plain
	if profile.Impersonate {
		client = h.browser
	}

	start := time.Now()
	res, err := client.R().
		SetContext(ctx).
		SetHeaders(profile.Headers).
		Get(url)
	elapsed := time.Since(start)

	if err != nil {
		fe := &FetchError{Kind: Classify(err), URL: url, Elapsed: elapsed, Err: err}
		span.RecordError(fe)
		span.SetStatus(codes.Error, string(fe.Kind))
		h.logger.DebugContext(ctx, "request failed", "url", url, "profile", profile.Name, "kind", fe.Kind, "err", err)
		return nil, fe
	}

	span.SetAttributes(attribute.Int("status", res.StatusCode()))
	if !res.IsSuccess() {
		fe := &FetchError{
			Kind:       statusKind(res.StatusCode()),
			URL:        url,
			StatusCode: res.StatusCode(),
			Elapsed:    elapsed,
		}
		span.SetStatus(codes.Error, string(fe.Kind))
		h.logger.DebugContext(ctx, "non-2xx response", "url", url, "status", res.StatusCode(), "kind", fe.Kind)
		return nil, fe
	}

	h.logger.DebugContext(ctx, "request succeeded", "url", url, "status", res.StatusCode(), "bytes", len(res.Body()), "elapsed", elapsed)

	return &Response{
		URL:        url,
		StatusCode: res.StatusCode(),
		Header:     res.Header(),
		Body:       res.String(),
		Elapsed:    elapsed,
	}, nil
}
