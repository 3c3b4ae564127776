package gradcafe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"

	"gradintake/lib/restyutil"
)

const surveyPath = "/survey/"

// ErrBadRequest marks a non-retryable client-side failure. Callers
// treat it as fatal for the whole run, unlike transient network
// failures which only cost the page.
var ErrBadRequest = errors.New("non-retryable request failure")

// ErrDisallowed is returned by NewClient when the site's robots policy
// forbids crawling the survey path.
var ErrDisallowed = errors.New("crawling the survey path is disallowed by robots.txt")

type ClientOptions struct {
	// BaseUrl of the survey site, e.g. "https://www.thegradcafe.com".
	BaseUrl string
	// Query is the search term whose paginated listings are fetched.
	Query string
	// Delay is the minimum spacing between outbound requests.
	Delay time.Duration
	// RetryCount bounds retries of a transient failure per request.
	RetryCount int
	// RetryWaitTime is the initial backoff; resty doubles it per
	// attempt up to ten times this value.
	RetryWaitTime time.Duration
	UserAgent     string
}

// Client fetches paginated survey listings politely: it checks the
// site's robots policy once at construction, spaces requests with a
// rate limiter, and retries transient failures with backoff.
type Client struct {
	http  *resty.Client
	query string
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	parsedBaseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if opts.Query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrBadRequest)
	}
	if opts.Delay <= 0 {
		opts.Delay = time.Second
	}
	if opts.RetryCount <= 0 {
		opts.RetryCount = 3
	}
	if opts.RetryWaitTime <= 0 {
		opts.RetryWaitTime = 500 * time.Millisecond
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)

	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsedBaseUrl.Hostname()))
	httpClient.SetTimeout(time.Second * 30)

	// one request per Delay, burst of 1 keeps the spacing strict
	rateLimiter := rate.NewLimiter(rate.Every(opts.Delay), 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	httpClient.SetRetryCount(opts.RetryCount)
	httpClient.SetRetryWaitTime(opts.RetryWaitTime)
	httpClient.SetRetryMaxWaitTime(opts.RetryWaitTime * 10)
	httpClient.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		code := res.StatusCode()
		return code >= 500 ||
			code == http.StatusTooManyRequests ||
			code == http.StatusRequestTimeout
	})

	restyutil.InstrumentClient(httpClient, tracer)

	c := &Client{
		http:  httpClient,
		query: opts.Query,
	}
	err = c.checkRobots(ctx, opts.UserAgent)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// checkRobots fetches and evaluates the site's published crawling
// policy. Failure to retrieve the policy is an error; a 404 counts as
// "no policy" and allows everything, per the robots.txt convention.
func (c *Client) checkRobots(ctx context.Context, userAgent string) error {
	res, err := c.http.R().
		SetContext(ctx).
		Get("/robots.txt")
	if err != nil {
		return fmt.Errorf("retrieve robots.txt: %w", err)
	}

	robots, err := robotstxt.FromStatusAndBytes(res.StatusCode(), res.Body())
	if err != nil {
		return fmt.Errorf("parse robots.txt: %w", err)
	}
	if !robots.FindGroup(userAgent).Test(surveyPath) {
		return ErrDisallowed
	}
	return nil
}

// FetchPage retrieves the raw HTML of one listing page. Transient
// failures (timeouts, resets, 5xx) are retried internally; once retries
// are exhausted the returned error is non-fatal and the caller should
// skip the page. 4xx responses other than 429/408 wrap ErrBadRequest
// and abort the run.
func (c *Client) FetchPage(ctx context.Context, page int) ([]byte, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", c.query).
		SetQueryParam("page", fmt.Sprint(page)).
		Get(surveyPath)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}

	code := res.StatusCode()
	switch {
	case code == http.StatusOK:
		return res.Body(), nil
	case code >= 400 && code < 500 &&
		code != http.StatusTooManyRequests &&
		code != http.StatusRequestTimeout:
		return nil, fmt.Errorf("%w: page %d: status %d", ErrBadRequest, page, code)
	default:
		return nil, fmt.Errorf("fetch page %d: status %d after retries", page, code)
	}
}

// IsFatal reports whether a FetchPage error should abort the whole run
// instead of skipping the page.
func IsFatal(err error) bool {
	return errors.Is(err, ErrBadRequest)
}
