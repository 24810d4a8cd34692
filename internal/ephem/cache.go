package ephem

import (
	"sync"
	"time"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
)

// Cached memoizes sun and moon results of another Ephemeris. Every DSO of a
// night is sampled at the same instants, so the background bodies only need
// computing once per night. Target positions are passed through uncached.
type Cached struct {
	next Ephemeris

	mu    sync.RWMutex
	sun   map[bodyKey]Horizontal
	moon  map[bodyKey]Horizontal
	illum map[int64]float64
}

type bodyKey struct {
	unixNano int64
	lat, lon float64
}

// NewCached wraps next with a sun/moon cache.
func NewCached(next Ephemeris) *Cached {
	return &Cached{
		next:  next,
		sun:   make(map[bodyKey]Horizontal),
		moon:  make(map[bodyKey]Horizontal),
		illum: make(map[int64]float64),
	}
}

// Name implements Ephemeris.
func (c *Cached) Name() string {
	return c.next.Name() + "+cache"
}

// PositionAt implements Ephemeris.
func (c *Cached) PositionAt(pos astro.Equatorial, t time.Time, obs astro.Observer) (Horizontal, error) {
	return c.next.PositionAt(pos, t, obs)
}

// SunPositionAt implements Ephemeris.
func (c *Cached) SunPositionAt(t time.Time, obs astro.Observer) (Horizontal, error) {
	return c.lookup(c.sun, key(t, obs), func() (Horizontal, error) {
		return c.next.SunPositionAt(t, obs)
	})
}

// MoonPositionAt implements Ephemeris.
func (c *Cached) MoonPositionAt(t time.Time, obs astro.Observer) (Horizontal, error) {
	return c.lookup(c.moon, key(t, obs), func() (Horizontal, error) {
		return c.next.MoonPositionAt(t, obs)
	})
}

// MoonIlluminationAt implements Ephemeris.
func (c *Cached) MoonIlluminationAt(t time.Time) (float64, error) {
	k := t.UnixNano()

	c.mu.RLock()
	f, ok := c.illum[k]
	c.mu.RUnlock()
	if ok {
		return f, nil
	}

	f, err := c.next.MoonIlluminationAt(t)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.illum[k] = f
	c.mu.Unlock()
	return f, nil
}

// Len returns the number of cached entries.
func (c *Cached) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sun) + len(c.moon) + len(c.illum)
}

// Reset drops all cached entries.
func (c *Cached) Reset() {
	c.mu.Lock()
	c.sun = make(map[bodyKey]Horizontal)
	c.moon = make(map[bodyKey]Horizontal)
	c.illum = make(map[int64]float64)
	c.mu.Unlock()
}

func (c *Cached) lookup(m map[bodyKey]Horizontal, k bodyKey, compute func() (Horizontal, error)) (Horizontal, error) {
	c.mu.RLock()
	h, ok := m[k]
	c.mu.RUnlock()
	if ok {
		return h, nil
	}

	h, err := compute()
	if err != nil {
		return Horizontal{}, err // errors are not cached
	}

	c.mu.Lock()
	m[k] = h
	c.mu.Unlock()
	return h, nil
}

func key(t time.Time, obs astro.Observer) bodyKey {
	return bodyKey{unixNano: t.UnixNano(), lat: obs.LatDeg, lon: obs.LonDeg}
}
