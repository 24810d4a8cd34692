package catalog

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
	"github.com/yetanothergithubaccount/DSObest/internal/logging"
)

const (
	// DefaultSesameURL queries Simbad, NED and VizieR in turn, plain text output.
	DefaultSesameURL = "https://cds.unistra.fr/cgi-bin/nph-sesame/-oI/SNV"

	// DefaultTimeout is the per-attempt request timeout.
	DefaultTimeout = 15 * time.Second

	userAgent = "dsobest/1.0 (DSO observation planner)"
)

// SesameResolver resolves names with the CDS Sesame name resolver.
type SesameResolver struct {
	client  *http.Client
	url     string
	timeout time.Duration
	limiter *rate.Limiter
	retry   RetryConfig
	log     *logging.Logger
}

// Option configures the CDS clients.
type Option func(*clientOptions)

type clientOptions struct {
	url     string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
	retry   RetryConfig
	log     *logging.Logger
}

// WithURL sets a custom service URL.
func WithURL(u string) Option {
	return func(o *clientOptions) {
		o.url = u
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.client = client
	}
}

// WithRateLimit limits requests per second (burst of 1).
func WithRateLimit(perSecond float64) Option {
	return func(o *clientOptions) {
		o.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithLimiter shares a limiter between clients.
func WithLimiter(l *rate.Limiter) Option {
	return func(o *clientOptions) {
		o.limiter = l
	}
}

// WithRetry sets the retry policy.
func WithRetry(cfg RetryConfig) Option {
	return func(o *clientOptions) {
		o.retry = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *clientOptions) {
		o.log = l
	}
}

func buildOptions(defaultURL string, opts []Option) clientOptions {
	o := clientOptions{
		url:     defaultURL,
		timeout: DefaultTimeout,
		retry:   DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		o.client = &http.Client{}
	}
	if o.limiter == nil {
		o.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if o.log == nil {
		o.log = logging.Discard()
	}
	return o
}

// NewSesameResolver creates a Sesame client.
func NewSesameResolver(opts ...Option) *SesameResolver {
	o := buildOptions(DefaultSesameURL, opts)
	return &SesameResolver{
		client:  o.client,
		url:     o.url,
		timeout: o.timeout,
		limiter: o.limiter,
		retry:   o.retry,
		log:     o.log,
	}
}

// Resolve implements Resolver.
func (r *SesameResolver) Resolve(ctx context.Context, name string) (Object, error) {
	name = NormalizeName(name)

	rec, err := RetryWithBackoffResult(ctx, r.retry, r.log, func() (sesameRecord, error) {
		return r.query(ctx, name)
	})
	if err != nil {
		return Object{}, &ResolutionError{Name: name, Err: err}
	}

	return Object{
		Name:     name,
		ID:       rec.MainID,
		Position: astro.Equatorial{RAdeg: rec.RAdeg, DecDeg: rec.DecDeg},
		Type:     rec.Type,
		Source:   "sesame",
	}, nil
}

func (r *SesameResolver) query(ctx context.Context, name string) (sesameRecord, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return sesameRecord{}, fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reqURL := r.url + "?" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return sesameRecord{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/plain")

	resp, err := r.client.Do(req)
	if err != nil {
		return sesameRecord{}, fmt.Errorf("sesame request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return sesameRecord{}, newHTTPError("sesame", resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return sesameRecord{}, fmt.Errorf("read response: %w", err)
	}

	return parseSesame(body)
}

// sesameRecord is the first answer in a Sesame plain-text response.
type sesameRecord struct {
	MainID string
	Type   string
	RAdeg  float64
	DecDeg float64
}

// parseSesame extracts the first resolved position from Sesame -oI output:
//
//	# M31	#Q1234
//	#=S=Simbad (via url):    1
//	%@ 1575544
//	%I.0 M  31
//	%C.0 AGN
//	%J 10.68470833 +41.26875000 = 00:42:44.33 +41:16:07.5
//	#====Done (2024-Jan-12,10:15:34z)====
//
// A response without a %J line means the name is unknown.
func parseSesame(body []byte) (sesameRecord, error) {
	var rec sesameRecord
	found := false

	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		switch {
		case strings.HasPrefix(line, "%J ") && !found:
			fields := strings.Fields(line)
			if len(fields) < 3 {
				return sesameRecord{}, fmt.Errorf("malformed position line %q", line)
			}
			ra, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return sesameRecord{}, fmt.Errorf("parse RA: %w", err)
			}
			dec, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return sesameRecord{}, fmt.Errorf("parse Dec: %w", err)
			}
			rec.RAdeg, rec.DecDeg = ra, dec
			found = true
		case strings.HasPrefix(line, "%I.0 ") && rec.MainID == "":
			rec.MainID = strings.TrimSpace(strings.TrimPrefix(line, "%I.0 "))
		case strings.HasPrefix(line, "%C.0 ") && rec.Type == "":
			rec.Type = strings.TrimSpace(strings.TrimPrefix(line, "%C.0 "))
		}
	}
	if err := sc.Err(); err != nil {
		return sesameRecord{}, fmt.Errorf("scan response: %w", err)
	}

	if !found {
		return sesameRecord{}, ErrNotFound
	}
	return rec, nil
}
