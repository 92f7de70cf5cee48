package mailward

import "time"

// Mode selects the valid-for-mailing policy.
type Mode string

const (
	// ModeStrict accepts only High-reliability addresses with a
	// definitively active mailbox.
	ModeStrict Mode = "strict"
	// ModeLenient also accepts Medium-reliability addresses and
	// indeterminate activity signals.
	ModeLenient Mode = "lenient"
)

// Options configures a Verifier. The zero value behaves like
// DefaultOptions: every field's zero means "use the default".
type Options struct {
	// Timeout bounds each DNS resolution and each SMTP connect and
	// command round-trip. Default: 10s
	Timeout time.Duration

	// DisableSMTP turns off the live RCPT probe. Without the probe
	// addresses can never reach High or Medium reliability. The field
	// is inverted so the zero value keeps the probe on.
	DisableSMTP bool

	// AcceptCatchAll controls whether a catch-all domain can still be
	// valid for mailing. Default: false
	AcceptCatchAll bool

	// Mode is the mailing-validity policy. Default: ModeStrict
	Mode Mode

	// ProbeFrom is the MAIL FROM sender used by the probe.
	// Default: "check@email-validator.com"
	ProbeFrom string

	// HeloDomain is announced in HELO. Defaults to the ProbeFrom
	// domain.
	HeloDomain string

	// DisposableFile optionally extends the built-in disposable-domain
	// list, one domain per line, # comments allowed.
	DisposableFile string

	// MaxEmails caps a batch after deduplication. 0 means no cap.
	MaxEmails int

	// Concurrency is the batch worker count. Default 1, preserving the
	// sequential pacing mail servers expect.
	Concurrency int

	// CheckpointEvery controls how often the batch emits intermediate
	// result snapshots. Default: 1000
	CheckpointEvery int

	// DNSCacheTTL bounds reuse of resolved MX records within a batch.
	// Default: 5m
	DNSCacheTTL time.Duration

	// LogLevel for the engine's structured logs. Default: "info"
	LogLevel string
}

// DefaultOptions returns the options the original deployment ran with.
func DefaultOptions() Options {
	return Options{
		Timeout:         10 * time.Second,
		DisableSMTP:     false,
		AcceptCatchAll:  false,
		Mode:            ModeStrict,
		ProbeFrom:       "check@email-validator.com",
		MaxEmails:       0,
		Concurrency:     1,
		CheckpointEvery: 1000,
		DNSCacheTTL:     5 * time.Minute,
		LogLevel:        "info",
	}
}

// withDefaults fills unset fields so a partially populated Options
// still behaves.
func (o Options) withDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = 10 * time.Second
	}
	if o.Mode == "" {
		o.Mode = ModeStrict
	}
	if o.ProbeFrom == "" {
		o.ProbeFrom = "check@email-validator.com"
	}
	if o.HeloDomain == "" {
		if i := lastAt(o.ProbeFrom); i >= 0 {
			o.HeloDomain = o.ProbeFrom[i+1:]
		}
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.CheckpointEvery <= 0 {
		o.CheckpointEvery = 1000
	}
	if o.DNSCacheTTL == 0 {
		o.DNSCacheTTL = 5 * time.Minute
	}
	if o.LogLevel == "" {
		o.LogLevel = "info"
	}
	return o
}

func lastAt(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '@' {
			return i
		}
	}
	return -1
}
