// Package catalog resolves DSO names to sky positions and metadata.
//
// Resolution is delegated to the CDS services (Sesame for coordinates,
// SIMBAD TAP for type, magnitude and size). Results can be cached in the
// local store through StoreResolver and Chain.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
)

// Object is a resolved catalogue entry.
type Object struct {
	Name     string           // catalogue designation as requested, normalised
	ID       string           // main identifier reported by the resolver
	Position astro.Equatorial // J2000
	Type     string           // short object type code, may be empty
	Source   string           // which resolver answered
}

// Resolver resolves a name to a sky position.
type Resolver interface {
	Resolve(ctx context.Context, name string) (Object, error)
}

// ErrNotFound is returned when no resolver knows the name.
var ErrNotFound = errors.New("object not found")

// ResolutionError wraps a failure to resolve one name.
type ResolutionError struct {
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// NormalizeName upper-cases and trims a designation, and collapses inner
// whitespace ("ngc  7000" -> "NGC 7000").
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToUpper(name)), " ")
}
