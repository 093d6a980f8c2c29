package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// resolver is the lookup the cache fronts. *net.Resolver satisfies it.
type resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

type dnsEntry struct {
	addrs   []net.IPAddr
	expires time.Time
}

// dnsCache memoises host lookups for a fixed TTL so hot endpoints skip a
// resolver round trip on every new connection.
type dnsCache struct {
	mu       sync.RWMutex
	entries  map[string]dnsEntry
	ttl      time.Duration
	resolver resolver
	now      func() time.Time
}

func newDNSCache(ttl time.Duration, r resolver) *dnsCache {
	if r == nil {
		r = net.DefaultResolver
	}
	return &dnsCache{
		entries:  make(map[string]dnsEntry),
		ttl:      ttl,
		resolver: r,
		now:      time.Now,
	}
}

func (c *dnsCache) lookup(ctx context.Context, host string) ([]net.IPAddr, error) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.entries[host]
	c.mu.RUnlock()
	if ok && now.Before(e.expires) {
		return e.addrs, nil
	}

	addrs, err := c.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no addresses for %s", host)
	}

	c.mu.Lock()
	c.entries[host] = dnsEntry{addrs: addrs, expires: now.Add(c.ttl)}
	c.mu.Unlock()
	return addrs, nil
}

func (c *dnsCache) forget(host string) {
	c.mu.Lock()
	delete(c.entries, host)
	c.mu.Unlock()
}

// dialContext returns a DialContext that resolves through the cache and tries
// each address in turn. IP literals bypass the cache.
func (c *dnsCache) dialContext(dialer *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		if net.ParseIP(host) != nil {
			return dialer.DialContext(ctx, network, addr)
		}

		addrs, err := c.lookup(ctx, host)
		if err != nil {
			return nil, err
		}
		var errs []error
		for _, ip := range addrs {
			conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip.String(), port))
			if err == nil {
				return conn, nil
			}
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
		// every cached address failed; resolve again next time
		c.forget(host)
		return nil, errors.Join(errs...)
	}
}
