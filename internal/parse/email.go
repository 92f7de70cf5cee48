// Package parse splits raw email addresses into their parts and
// normalizes the domain into ASCII and Unicode forms.
package parse

import (
	"strings"

	"golang.org/x/net/idna"
)

// Address is the parsed representation of one input string. The checks
// receive this alongside the raw input.
type Address struct {
	Raw           string // trimmed original input
	Local         string // part before the last @
	Domain        string // part after the last @, lower-cased, ASCII/Punycode form
	DomainUnicode string // Unicode display form of the domain
	HasParts      bool   // false when no usable local@domain split exists
}

// NewAddress splits raw at the last @, mirroring how the validation
// rules treat multiple @ signs (they fail syntax, but the parts are
// still reported). HasParts is false when either side is empty or the
// separator is missing.
func NewAddress(raw string) Address {
	raw = strings.TrimSpace(raw)

	at := strings.LastIndex(raw, "@")
	if at <= 0 || at == len(raw)-1 {
		return Address{Raw: raw}
	}

	local := strings.TrimSpace(raw[:at])
	domain := strings.ToLower(strings.TrimSpace(raw[at+1:]))
	if local == "" || domain == "" {
		return Address{Raw: raw}
	}

	ascii, unicode := domainForms(domain)
	return Address{
		Raw:           raw,
		Local:         local,
		Domain:        ascii,
		DomainUnicode: unicode,
		HasParts:      true,
	}
}

// domainForms returns the ASCII/Punycode form used for DNS and SMTP and
// the Unicode display form. Conversion failures fall back to the input
// unchanged; the syntax rules reject anything DNS could not use anyway.
func domainForms(domain string) (ascii, unicode string) {
	hasNonASCII := false
	for _, r := range domain {
		if r > 127 {
			hasNonASCII = true
			break
		}
	}

	if hasNonASCII {
		a, err := idna.Lookup.ToASCII(domain)
		if err != nil {
			return domain, domain
		}
		return a, domain
	}

	// Existing Punycode gets a readable Unicode form for display.
	u, err := idna.Display.ToUnicode(domain)
	if err != nil {
		u = domain
	}
	return domain, u
}
