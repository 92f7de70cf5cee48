// Package types contains the shared leaf types for mailward.
// This package does not import anything from other mailward packages
// to avoid circular imports.
package types

import (
	"fmt"
	"strings"
)

// Signal is a check outcome that may be indeterminate. The string values
// are part of the result contract consumed by external result writers:
// "–" marks a signal that could not be determined.
type Signal string

const (
	SignalYes     Signal = "Yes"
	SignalNo      Signal = "No"
	SignalUnknown Signal = "–"

	// SignalTempUnavailable is reported for greylisting and temporary
	// server errors (SMTP 450/421/451). It is distinct from Unknown:
	// an indeterminate mailbox may still count toward Medium
	// reliability, a temporarily unavailable one does not.
	SignalTempUnavailable Signal = "Temporarily unavailable"
)

// Reliability is the three-level confidence tier, distinct from the
// final binary mailing-validity decision.
type Reliability string

const (
	ReliabilityHigh   Reliability = "High"
	ReliabilityMedium Reliability = "Medium"
	ReliabilityNone   Reliability = "None"
)

// DNSStatus classifies the outcome of resolving a domain's mail routing.
type DNSStatus string

const (
	// DNSResolved means MX records were found.
	DNSResolved DNSStatus = "resolved"
	// DNSFallbackA means no MX answer but an A record exists; the
	// domain is resolvable but unusual for mail.
	DNSFallbackA DNSStatus = "fallback-a"
	// DNSNoRecords means neither MX nor A records exist.
	DNSNoRecords DNSStatus = "no-records"
	// DNSNxDomain means the domain does not exist.
	DNSNxDomain DNSStatus = "nxdomain"
	// DNSTimeout means the query exceeded its lifetime.
	DNSTimeout DNSStatus = "timeout"
	// DNSError covers server failures and transport errors.
	DNSError DNSStatus = "error"
)

// MXRecord is one mail-exchange record. Lower preference means higher
// priority.
type MXRecord struct {
	Pref uint16
	Host string
}

// DNSOutcome is the result of resolving a domain. Records are sorted
// ascending by preference; callers use at most the first five.
type DNSOutcome struct {
	Status  DNSStatus
	Records []MXRecord
	Detail  string
}

// Valid reports whether the domain is resolvable for mail purposes.
// A bare A record still counts as a weaker but valid signal, per the
// implicit MX rule.
func (o DNSOutcome) Valid() bool {
	return o.Status == DNSResolved || o.Status == DNSFallbackA
}

// Hosts returns up to n MX host names in preference order. A
// non-positive n returns all of them.
func (o DNSOutcome) Hosts(n int) []string {
	if n <= 0 || n > len(o.Records) {
		n = len(o.Records)
	}
	hosts := make([]string, 0, n)
	for _, r := range o.Records[:n] {
		hosts = append(hosts, r.Host)
	}
	return hosts
}

// Text renders up to n records as "pref host" lines, the format the
// result record exposes to spreadsheet export. A non-positive n
// renders all of them.
func (o DNSOutcome) Text(n int) string {
	if n <= 0 || n > len(o.Records) {
		n = len(o.Records)
	}
	lines := make([]string, 0, n)
	for _, r := range o.Records[:n] {
		lines = append(lines, fmt.Sprintf("%d %s", r.Pref, r.Host))
	}
	return strings.Join(lines, "\n")
}

// SMTPOutcome is the result of probing an address over SMTP. It is
// created fresh per address and discarded once the reliability engine
// has consumed it.
type SMTPOutcome struct {
	Connected   bool
	Code        int // primary RCPT reply code, 0 when never connected
	EmailActive Signal
	MailboxFull Signal
	CatchAll    Signal // Yes, No or Unknown; Unknown collapses to No in results
	Message     string
}

// Signals is the full input of the reliability engine: every signal the
// pipeline collected about one address.
type Signals struct {
	SyntaxValid      bool
	DNSValid         bool
	SMTPConnected    bool
	SMTPEnabled      bool
	EmailActive      Signal
	MailboxFull      Signal
	CatchAll         Signal
	Disposable       bool
	RoleAccount      bool
	SuspiciousDomain bool
}

// Deliverable derives mailbox deliverability from the activity signal:
// only a definitive Yes or No carries over, everything else is Unknown.
func (s Signals) Deliverable() Signal {
	switch s.EmailActive {
	case SignalYes:
		return SignalYes
	case SignalNo:
		return SignalNo
	default:
		return SignalUnknown
	}
}
