// Package dnsx resolves mail-routing DNS records and classifies failure
// modes. Outcomes are reported through sentinel errors so callers can
// distinguish a missing domain from a missing record type or a timeout.
package dnsx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	mdns "github.com/miekg/dns"
)

var (
	// ErrNotFound means the domain does not exist (NXDOMAIN).
	ErrNotFound = errors.New("dnsx: domain does not exist")
	// ErrNoRecords means the domain exists but has no records of the
	// requested type (NOERROR with an empty answer).
	ErrNoRecords = errors.New("dnsx: no records of requested type")
	// ErrTimeout means the query exceeded its lifetime.
	ErrTimeout = errors.New("dnsx: query timed out")
	// ErrServFail means the nameserver reported a failure.
	ErrServFail = errors.New("dnsx: server failure")
	// ErrRefused means the nameserver refused the query.
	ErrRefused = errors.New("dnsx: query refused")
)

// IsNotFound reports whether err indicates NXDOMAIN.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsNoRecords reports whether err indicates an empty answer.
func IsNoRecords(err error) bool { return errors.Is(err, ErrNoRecords) }

// IsTimeout reports whether err indicates an expired query.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// Resolver is the lookup surface the engine depends on. MockResolver
// implements it for tests.
type Resolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
	LookupA(ctx context.Context, domain string) ([]net.IP, error)
}

// Config configures the DNS resolver.
type Config struct {
	// Nameservers to query in order (e.g. "8.8.8.8:53"). If empty,
	// servers from /etc/resolv.conf are used, falling back to public
	// DNS.
	Nameservers []string

	// Timeout bounds each query, acting as both the connect timeout
	// and the overall lifetime. Default 5s.
	Timeout time.Duration
}

// DNSResolver implements Resolver using github.com/miekg/dns. Failed
// outcomes are never retried here; the caller decides whether a retry
// is warranted.
type DNSResolver struct {
	cfg    Config
	client *mdns.Client
}

// NewResolver creates a resolver with the given configuration.
func NewResolver(cfg Config) *DNSResolver {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if len(cfg.Nameservers) == 0 {
		cfg.Nameservers = systemNameservers()
	}
	return &DNSResolver{
		cfg:    cfg,
		client: &mdns.Client{Timeout: cfg.Timeout},
	}
}

// systemNameservers reads resolv.conf, falling back to public DNS.
func systemNameservers() []string {
	conf, err := mdns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(conf.Servers) == 0 {
		return []string{"8.8.8.8:53", "1.1.1.1:53"}
	}
	servers := make([]string, 0, len(conf.Servers))
	for _, s := range conf.Servers {
		if !strings.Contains(s, ":") {
			s += ":" + conf.Port
		}
		servers = append(servers, s)
	}
	return servers
}

func ensureFQDN(name string) string {
	if !strings.HasSuffix(name, ".") {
		return name + "."
	}
	return name
}

// query asks each nameserver in turn until one produces a definitive
// answer. NXDOMAIN is definitive immediately; transport errors and
// server failures move on to the next server.
func (r *DNSResolver) query(ctx context.Context, name string, qtype uint16) (*mdns.Msg, error) {
	m := new(mdns.Msg)
	m.SetQuestion(ensureFQDN(name), qtype)
	m.RecursionDesired = true

	var lastErr error
	for _, server := range r.cfg.Nameservers {
		select {
		case <-ctx.Done():
			return nil, classifyTransport(ctx.Err())
		default:
		}

		resp, _, err := r.client.ExchangeContext(ctx, m, server)
		if err != nil {
			lastErr = classifyTransport(err)
			continue
		}

		switch resp.Rcode {
		case mdns.RcodeSuccess:
			return resp, nil
		case mdns.RcodeNameError:
			return nil, ErrNotFound
		case mdns.RcodeServerFailure:
			lastErr = ErrServFail
		case mdns.RcodeRefused:
			lastErr = ErrRefused
		default:
			lastErr = fmt.Errorf("dnsx: unexpected rcode %d", resp.Rcode)
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrServFail
}

// classifyTransport maps socket-level errors onto package sentinels.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ErrTimeout
	}
	return fmt.Errorf("dnsx: query failed: %w", err)
}

// LookupMX retrieves MX records for the domain. Hosts keep their
// trailing dot; callers trim as needed.
func (r *DNSResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	resp, err := r.query(ctx, domain, mdns.TypeMX)
	if err != nil {
		return nil, err
	}

	var records []*net.MX
	for _, rr := range resp.Answer {
		if mx, ok := rr.(*mdns.MX); ok {
			records = append(records, &net.MX{Host: mx.Mx, Pref: mx.Preference})
		}
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

// LookupA retrieves A records for the domain.
func (r *DNSResolver) LookupA(ctx context.Context, domain string) ([]net.IP, error) {
	resp, err := r.query(ctx, domain, mdns.TypeA)
	if err != nil {
		return nil, err
	}

	var ips []net.IP
	for _, rr := range resp.Answer {
		if a, ok := rr.(*mdns.A); ok {
			ips = append(ips, a.A)
		}
	}
	if len(ips) == 0 {
		return nil, ErrNoRecords
	}
	return ips, nil
}
