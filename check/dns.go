package check

import (
	"context"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/mailward/mailward/internal/dnsx"
	"github.com/mailward/mailward/types"
)

// DNSChecker resolves mail-routing records for a domain and folds the
// outcome into a single status. It holds no per-domain state; pass a
// dnscache.Cache as the resolver to get memoization.
type DNSChecker struct {
	resolver dnsx.Resolver
	timeout  time.Duration
}

// NewDNSChecker creates a checker. The timeout bounds each resolution
// as both connect time and overall lifetime.
func NewDNSChecker(r dnsx.Resolver, timeout time.Duration) *DNSChecker {
	return &DNSChecker{resolver: r, timeout: timeout}
}

// Resolve queries MX records for the domain, falling back to an A
// lookup when the domain exists but publishes no MX. Failures are
// classified, never returned as errors: the pipeline treats an
// unresolvable domain as a signal, not a fault.
func (c *DNSChecker) Resolve(ctx context.Context, domain string) types.DNSOutcome {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	records, err := c.resolver.LookupMX(ctx, domain)
	if err == nil {
		return types.DNSOutcome{
			Status:  types.DNSResolved,
			Records: sortMX(records),
		}
	}

	switch {
	case dnsx.IsNoRecords(err):
		return c.fallbackA(ctx, domain)
	case dnsx.IsNotFound(err):
		return types.DNSOutcome{Status: types.DNSNxDomain, Detail: "domain does not exist"}
	case dnsx.IsTimeout(err):
		return types.DNSOutcome{Status: types.DNSTimeout, Detail: "dns query timed out"}
	default:
		return types.DNSOutcome{Status: types.DNSError, Detail: err.Error()}
	}
}

// fallbackA treats an MX-less but resolvable domain as marginally
// valid: mail to it may still be deliverable via the implicit MX rule.
func (c *DNSChecker) fallbackA(ctx context.Context, domain string) types.DNSOutcome {
	ips, err := c.resolver.LookupA(ctx, domain)
	if err != nil || len(ips) == 0 {
		return types.DNSOutcome{Status: types.DNSNoRecords, Detail: "no MX or A records"}
	}

	hosts := make([]string, 0, len(ips))
	for _, ip := range ips {
		hosts = append(hosts, ip.String())
	}
	return types.DNSOutcome{
		Status: types.DNSFallbackA,
		Detail: "no MX, A records: " + strings.Join(hosts, ", "),
	}
}

// sortMX orders records by preference ascending, keeping the
// server-provided order within equal preferences.
func sortMX(records []*net.MX) []types.MXRecord {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Pref < records[j].Pref
	})
	out := make([]types.MXRecord, 0, len(records))
	for _, r := range records {
		out = append(out, types.MXRecord{
			Pref: r.Pref,
			Host: strings.TrimSuffix(r.Host, "."),
		})
	}
	return out
}
