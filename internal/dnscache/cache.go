// Package dnscache provides a thread-safe, TTL-based cache over a
// dnsx.Resolver with singleflight deduplication, so a batch of
// addresses on the same domain triggers at most one live query per
// record type.
package dnscache

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/mailward/mailward/internal/dnsx"
)

// Cache memoizes MX and A lookups. Concurrent lookups for the same
// domain and record type are deduplicated: only one query runs and all
// waiters receive its result. Negative outcomes are cached too, with
// the same TTL.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	ttl      time.Duration
	resolver dnsx.Resolver
}

type entry struct {
	mx      []*net.MX
	ips     []net.IP
	err     error
	expires time.Time
	done    chan struct{} // closed when lookup is complete
}

// New creates a cache in front of r with the given entry TTL.
func New(r dnsx.Resolver, ttl time.Duration) *Cache {
	return &Cache{
		entries:  make(map[string]*entry),
		ttl:      ttl,
		resolver: r,
	}
}

// LookupMX returns MX records for the domain, querying at most once
// per TTL window.
func (c *Cache) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	e, owner := c.claim("mx:" + strings.ToLower(domain))
	if owner {
		e.mx, e.err = c.resolver.LookupMX(ctx, domain)
		e.expires = time.Now().Add(c.ttl)
		close(e.done)
	}
	return copyMX(e.mx), e.err
}

// LookupA returns A records for the domain, querying at most once per
// TTL window.
func (c *Cache) LookupA(ctx context.Context, domain string) ([]net.IP, error) {
	e, owner := c.claim("a:" + strings.ToLower(domain))
	if owner {
		e.ips, e.err = c.resolver.LookupA(ctx, domain)
		e.expires = time.Now().Add(c.ttl)
		close(e.done)
	}
	return copyIPs(e.ips), e.err
}

// claim returns the entry for key. When owner is true the caller must
// perform the lookup and close e.done; otherwise the entry is already
// complete on return.
func (c *Cache) claim(key string) (e *entry, owner bool) {
	c.mu.Lock()

	if e, ok := c.entries[key]; ok {
		select {
		case <-e.done:
			// Completed entry - still valid?
			if time.Now().Before(e.expires) {
				c.mu.Unlock()
				return e, false
			}
			// Expired, fall through to refresh
		default:
			// Lookup in progress - wait for it. The owner's lookup is
			// bounded by its own context, so this does not block forever.
			c.mu.Unlock()
			<-e.done
			return e, false
		}
	}

	e = &entry{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()
	return e, true
}

// Len returns the number of entries in the cache (for diagnostics).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// copyMX returns a deep copy so callers cannot mutate cached records,
// e.g. by sorting in place.
func copyMX(records []*net.MX) []*net.MX {
	if records == nil {
		return nil
	}
	out := make([]*net.MX, len(records))
	for i, r := range records {
		cp := *r
		out[i] = &cp
	}
	return out
}

func copyIPs(ips []net.IP) []net.IP {
	if ips == nil {
		return nil
	}
	out := make([]net.IP, len(ips))
	copy(out, ips)
	return out
}
