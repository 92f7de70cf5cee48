package check

import (
	"strings"

	"github.com/mailward/mailward/internal/disposable"
)

// roleAccounts are local parts that address a function rather than a
// person. Exact matches and simple numbered or hyphenated variants
// (admin2, support-) count.
var roleAccounts = map[string]struct{}{
	"admin": {}, "administrator": {}, "support": {}, "info": {},
	"sales": {}, "contact": {}, "help": {}, "service": {},
	"noreply": {}, "no-reply": {}, "postmaster": {}, "webmaster": {},
	"hostmaster": {}, "abuse": {}, "security": {}, "marketing": {},
	"newsletter": {}, "notifications": {}, "alerts": {}, "system": {},
	"test": {}, "testing": {}, "demo": {}, "example": {},
	"mailer-daemon": {}, "daemon": {},
}

// knownProviders are never flagged as suspicious, whatever else they
// resemble.
var knownProviders = map[string]struct{}{
	"gmail.com": {}, "mail.ru": {}, "yandex.ru": {}, "yahoo.com": {},
	"hotmail.com": {}, "outlook.com": {}, "mail.com": {}, "bk.ru": {},
	"list.ru": {}, "inbox.ru": {}, "rambler.ru": {}, "ya.ru": {},
	"icloud.com": {}, "protonmail.com": {}, "aol.com": {}, "live.com": {},
	"msn.com": {}, "qq.com": {}, "163.com": {}, "sina.com": {},
}

// typoDomains are exact known misspellings of major providers. No
// edit-distance matching happens here; an unlisted near-miss passes.
var typoDomains = map[string]struct{}{
	// gmail
	"gmai1.com": {}, "gmai.com": {}, "gmaill.com": {}, "gmial.com": {},
	"gmail.co": {}, "gmail.cm": {}, "gmail.co.uk.com": {},
	// yahoo
	"yaho0.com": {}, "yahoo.co": {}, "yhoo.com": {}, "yahooo.com": {},
	// hotmail
	"hotmai1.com": {}, "hotmial.com": {}, "hotmai.com": {}, "hotmali.com": {},
	// mail.ru
	"mai1.ru": {}, "mail.r": {}, "mail.ry": {},
	// outlook
	"outlok.com": {}, "outlook.co": {},
	// yandex
	"yandex.co": {}, "yandex.cm": {}, "yandex.r": {},
}

// DomainClassifier answers reputation questions about a parsed
// address: disposable provider, role account, typo-squatted domain.
type DomainClassifier struct {
	disposables *disposable.Set
}

// NewDomainClassifier creates a classifier backed by the given
// disposable-domain set.
func NewDomainClassifier(d *disposable.Set) *DomainClassifier {
	return &DomainClassifier{disposables: d}
}

// IsDisposable reports whether the domain, or any parent of it,
// belongs to a throwaway-address provider.
func (c *DomainClassifier) IsDisposable(domain string) bool {
	return c.disposables.Contains(domain)
}

// IsRoleAccount reports whether the local part addresses a function
// mailbox rather than a person.
func (c *DomainClassifier) IsRoleAccount(localPart string) bool {
	local := strings.ToLower(localPart)
	if _, ok := roleAccounts[local]; ok {
		return true
	}
	for role := range roleAccounts {
		if strings.HasPrefix(local, role) {
			suffix := local[len(role):]
			if suffix == "" || isDigits(suffix) || strings.HasPrefix(suffix, "-") {
				return true
			}
		}
	}
	return false
}

// IsSuspicious reports whether the domain is a known typo variant of a
// major provider. Known providers themselves are always clean.
func (c *DomainClassifier) IsSuspicious(domain string) bool {
	d := strings.ToLower(domain)
	if _, ok := knownProviders[d]; ok {
		return false
	}
	_, ok := typoDomains[d]
	return ok
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
