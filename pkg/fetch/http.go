package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperr "github.com/matzehuels/reposgraph/pkg/errors"
	"github.com/matzehuels/reposgraph/pkg/httputil"
	"github.com/matzehuels/reposgraph/pkg/observability"
)

// DefaultTimeout bounds a single HTTP attempt.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps a manifest download; anything larger is not a manifest.
const maxBodySize = 8 << 20

// HTTPOptions configures [NewHTTPFetcher]. Zero values select defaults.
type HTTPOptions struct {
	Client    *http.Client      // Defaults to a client with Timeout
	Timeout   time.Duration     // Per-attempt timeout, default DefaultTimeout
	Detector  Detector          // Default DefaultSentinel
	Token     string            // Sent as a bearer token when set
	UserAgent string            // Default "reposgraph"
	Headers   map[string]string // Extra request headers
	Policy    *httputil.Policy  // Default httputil.DefaultPolicy
}

// HTTPFetcher fetches manifests with net/http. Network errors and 5xx
// responses are retried; everything else is classified once.
type HTTPFetcher struct {
	client   *http.Client
	detector Detector
	headers  map[string]string
	policy   httputil.Policy
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	detector := opts.Detector
	if detector == nil {
		detector = DefaultSentinel
	}
	policy := httputil.DefaultPolicy
	if opts.Policy != nil {
		policy = *opts.Policy
	}

	headers := map[string]string{"User-Agent": "reposgraph"}
	if opts.UserAgent != "" {
		headers["User-Agent"] = opts.UserAgent
	}
	if opts.Token != "" {
		headers["Authorization"] = "Bearer " + opts.Token
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &HTTPFetcher{client: client, detector: detector, headers: headers, policy: policy}
}

// Fetch performs a GET on rawURL.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Result, error) {
	var res Result
	err := httputil.Retry(ctx, f.policy, func() error {
		var err error
		res, err = f.do(ctx, rawURL)
		return err
	})
	if err != nil {
		return Result{}, classify(rawURL, err)
	}
	return res, nil
}

func (f *HTTPFetcher) do(ctx context.Context, rawURL string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid url %q", rawURL)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	host, path := hostPath(req.URL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return Result{}, httputil.Retryable(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return Result{}, httputil.Retryable(err)
	}
	if len(body) > maxBodySize {
		err := apperr.New(apperr.ErrCodeNetwork, "fetch %s: response exceeds %d bytes", rawURL, maxBodySize)
		hooks.OnError(ctx, req.Method, host, path, err)
		return Result{}, err
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	text := string(body)
	if f.detector.IsAbsent(resp.StatusCode, text) {
		return NotFound(), nil
	}

	switch code := resp.StatusCode; {
	case code >= 200 && code < 300:
	case code >= 500:
		return Result{}, httputil.Retryable(fmt.Errorf("status %d", code))
	default:
		return Result{}, fmt.Errorf("status %d", code)
	}

	text, err = decode(rawURL, body)
	if err != nil {
		return Result{}, err
	}
	return Found(text), nil
}

// classify turns a failed attempt into a structured transport error.
func classify(rawURL string, err error) error {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		return apperr.Wrap(apperr.ErrCodeTimeout, err, "fetch %s", rawURL)
	default:
		return apperr.Wrap(apperr.ErrCodeNetwork, err, "fetch %s", rawURL)
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func hostPath(u *url.URL) (string, string) {
	if u == nil {
		return "", ""
	}
	return u.Host, u.Path
}

var _ Fetcher = (*HTTPFetcher)(nil)
