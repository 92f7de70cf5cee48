package check

import (
	"regexp"
	"strings"
)

// Syntax rules are deliberately ASCII-only. Internationalized domains
// are handled separately at the DNS layer; an address that needs IDNA
// conversion still fails here, matching the strict contract callers
// depend on.
var (
	localRe  = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+$`)
	domainRe = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*\.[a-zA-Z]{2,}$`)
)

// CheckSyntax validates an address shape without any network access.
// Rules apply in order and the first failure wins, so the reason
// string is stable for a given input.
func CheckSyntax(address string) (bool, string) {
	if address == "" {
		return false, "empty address"
	}

	switch strings.Count(address, "@") {
	case 0:
		return false, "missing @"
	case 1:
	default:
		return false, "multiple @"
	}

	at := strings.LastIndex(address, "@")
	local, domain := address[:at], address[at+1:]

	if len(address) > 254 {
		return false, "address exceeds 254 characters"
	}
	if len(local) > 64 {
		return false, "local part exceeds 64 characters"
	}
	if len(domain) > 255 {
		return false, "domain exceeds 255 characters"
	}

	if local == "" {
		return false, "empty local part"
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return false, "local part starts or ends with dot"
	}
	if strings.Contains(local, "..") {
		return false, "local part contains consecutive dots"
	}

	if domain == "" {
		return false, "empty domain"
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false, "domain starts or ends with dot"
	}
	if strings.Contains(domain, "..") {
		return false, "domain contains consecutive dots"
	}

	if !localRe.MatchString(local) {
		return false, "invalid characters in local part"
	}
	if !domainRe.MatchString(domain) {
		return false, "invalid domain format"
	}

	return true, "syntax ok"
}
