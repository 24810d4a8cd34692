package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/yetanothergithubaccount/DSObest/internal/logging"
)

// DefaultSimbadURL is the SIMBAD TAP synchronous endpoint.
const DefaultSimbadURL = "https://simbad.cds.unistra.fr/simbad/sim-tap/sync"

// Metadata describes an object's type, brightness and size.
// Unknown numeric values are -1.
type Metadata struct {
	MainID    string
	Type      string
	Magnitude float64 // V band
	MajorAxis float64 // arcmin
	MinorAxis float64 // arcmin
}

// UnknownMetadata returns metadata with every value unset.
func UnknownMetadata() Metadata {
	return Metadata{Magnitude: -1, MajorAxis: -1, MinorAxis: -1}
}

// TypeString returns the readable object type.
func (m Metadata) TypeString() string {
	return Describe(m.Type)
}

// Known reports whether any value was found.
func (m Metadata) Known() bool {
	return m.Type != "" || m.Magnitude != -1 || m.MajorAxis != -1 || m.MinorAxis != -1
}

// MetadataLookup looks up object metadata. Failures are not fatal to a run;
// callers fall back to UnknownMetadata.
type MetadataLookup interface {
	Lookup(ctx context.Context, name string) (Metadata, error)
}

// SimbadLookup queries SIMBAD over TAP with ADQL.
type SimbadLookup struct {
	client  *http.Client
	url     string
	timeout time.Duration
	limiter *rate.Limiter
	retry   RetryConfig
	log     *logging.Logger
}

// NewSimbadLookup creates a SIMBAD TAP client.
func NewSimbadLookup(opts ...Option) *SimbadLookup {
	o := buildOptions(DefaultSimbadURL, opts)
	return &SimbadLookup{
		client:  o.client,
		url:     o.url,
		timeout: o.timeout,
		limiter: o.limiter,
		retry:   o.retry,
		log:     o.log,
	}
}

const simbadQuery = "SELECT basic.main_id, basic.otype, allfluxes.B, allfluxes.V, " +
	"basic.galdim_minaxis, basic.galdim_majaxis " +
	"FROM basic LEFT JOIN allfluxes ON allfluxes.oidref = basic.oid " +
	"WHERE basic.main_id = '%s'"

// Lookup implements MetadataLookup. name should be the SIMBAD main
// identifier (e.g. "M  31") as returned by the resolver.
func (s *SimbadLookup) Lookup(ctx context.Context, name string) (Metadata, error) {
	query := fmt.Sprintf(simbadQuery, strings.ReplaceAll(name, "'", "''"))

	md, err := RetryWithBackoffResult(ctx, s.retry, s.log, func() (Metadata, error) {
		return s.query(ctx, query)
	})
	if err != nil {
		return UnknownMetadata(), &ResolutionError{Name: name, Err: err}
	}
	return md, nil
}

func (s *SimbadLookup) query(ctx context.Context, query string) (Metadata, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return Metadata{}, fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	form := url.Values{}
	form.Set("REQUEST", "doQuery")
	form.Set("LANG", "ADQL")
	form.Set("FORMAT", "json")
	form.Set("QUERY", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(form.Encode()))
	if err != nil {
		return Metadata{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("simbad request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Metadata{}, newHTTPError("simbad", resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Metadata{}, fmt.Errorf("read response: %w", err)
	}

	return parseTAP(body)
}

// tapResponse is the TAP JSON result shape.
type tapResponse struct {
	Metadata []struct {
		Name string `json:"name"`
	} `json:"metadata"`
	Data [][]any `json:"data"`
}

// parseTAP decodes the first row of a TAP JSON result. Null cells keep
// their -1 / empty defaults.
func parseTAP(body []byte) (Metadata, error) {
	var resp tapResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Metadata{}, fmt.Errorf("parse JSON: %w", err)
	}
	if len(resp.Data) == 0 {
		return Metadata{}, ErrNotFound
	}

	md := UnknownMetadata()
	row := resp.Data[0]
	for i, col := range resp.Metadata {
		if i >= len(row) || row[i] == nil {
			continue
		}
		switch strings.ToLower(col.Name) {
		case "main_id":
			md.MainID, _ = row[i].(string)
		case "otype":
			md.Type, _ = row[i].(string)
		case "v":
			md.Magnitude = number(row[i], -1)
		case "galdim_majaxis":
			md.MajorAxis = number(row[i], -1)
		case "galdim_minaxis":
			md.MinorAxis = number(row[i], -1)
		}
	}
	return md, nil
}

func number(v any, fallback float64) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return fallback
}
