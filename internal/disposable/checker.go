// Package disposable tracks known throwaway email domains. The built-in
// list is embedded at compile time and can be extended at startup from
// an external file.
package disposable

import (
	"bufio"
	"os"
	"strings"
)

// Set holds disposable domains. Membership covers subdomains: a domain
// matches if it equals an entry or ends with "." + entry.
type Set struct {
	domains map[string]struct{}
}

// Default returns a Set seeded with the embedded built-in list.
func Default() *Set {
	return &Set{domains: builtin()}
}

// New returns a Set containing only the given domains. Used in tests.
func New(domains ...string) *Set {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		set[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	return &Set{domains: set}
}

// LoadFile merges domains from path into the set, one per line, with
// "#" comments and blank lines ignored. It returns the number of
// entries added.
func (s *Set) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	added := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := s.domains[line]; !ok {
			s.domains[line] = struct{}{}
			added++
		}
	}
	return added, scanner.Err()
}

// Contains reports whether domain (or any parent of it) is a known
// disposable domain.
func (s *Set) Contains(domain string) bool {
	domain = strings.ToLower(domain)
	if _, ok := s.domains[domain]; ok {
		return true
	}
	// Walk parent suffixes: mail.tempmail.com matches tempmail.com.
	for {
		dot := strings.Index(domain, ".")
		if dot < 0 {
			return false
		}
		domain = domain[dot+1:]
		if _, ok := s.domains[domain]; ok {
			return true
		}
	}
}

// Len returns the number of entries in the set.
func (s *Set) Len() int {
	return len(s.domains)
}
