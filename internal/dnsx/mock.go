package dnsx

import (
	"context"
	"net"
	"strings"
)

// MockResolver serves lookups from in-memory maps. Keys are
// lower-cased domain names without a trailing dot.
type MockResolver struct {
	MX  map[string][]*net.MX
	A   map[string][]net.IP
	Err map[string]error
}

// NewMockResolver creates an empty mock resolver.
func NewMockResolver() *MockResolver {
	return &MockResolver{
		MX:  make(map[string][]*net.MX),
		A:   make(map[string][]net.IP),
		Err: make(map[string]error),
	}
}

func mockKey(domain string) string {
	return strings.ToLower(strings.TrimSuffix(domain, "."))
}

// AddMX registers an MX record for the domain.
func (m *MockResolver) AddMX(domain, host string, pref uint16) *MockResolver {
	key := mockKey(domain)
	m.MX[key] = append(m.MX[key], &net.MX{Host: host, Pref: pref})
	return m
}

// AddA registers an A record for the domain.
func (m *MockResolver) AddA(domain, ip string) *MockResolver {
	key := mockKey(domain)
	m.A[key] = append(m.A[key], net.ParseIP(ip))
	return m
}

// Fail forces every lookup for the domain to return err.
func (m *MockResolver) Fail(domain string, err error) *MockResolver {
	m.Err[mockKey(domain)] = err
	return m
}

func (m *MockResolver) LookupMX(_ context.Context, domain string) ([]*net.MX, error) {
	key := mockKey(domain)
	if err, ok := m.Err[key]; ok {
		return nil, err
	}
	records, ok := m.MX[key]
	if !ok || len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

func (m *MockResolver) LookupA(_ context.Context, domain string) ([]net.IP, error) {
	key := mockKey(domain)
	if err, ok := m.Err[key]; ok {
		return nil, err
	}
	ips, ok := m.A[key]
	if !ok || len(ips) == 0 {
		return nil, ErrNoRecords
	}
	return ips, nil
}
