package check

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/mailward/mailward/internal/logger"
	"github.com/mailward/mailward/internal/smtpconn"
	"github.com/mailward/mailward/types"
)

const randLocalLen = 15

// SMTPConfig configures the recipient probe.
type SMTPConfig struct {
	// Enabled gates the whole probe. When false no connection is
	// opened and the outcome reports no catch-all.
	Enabled bool
	// ProbeFrom is the MAIL FROM sender address.
	ProbeFrom string
	// HeloDomain is announced in HELO.
	HeloDomain string
	// Timeout bounds the connect and each command round-trip.
	Timeout time.Duration
	// MaxHosts limits how many MX hosts are attempted, in preference
	// order. Default 3.
	MaxHosts int
	// CatchAllAttempts is the number of random-recipient probes used
	// for catch-all detection. Default 5.
	CatchAllAttempts int
	// RandLocal generates a random local part of n characters.
	// Injectable for deterministic tests; must be safe for concurrent
	// use. Defaults to lowercase alphanumerics from math/rand.
	RandLocal func(n int) string
	// Dial is injectable for testing.
	Dial smtpconn.DialFunc
}

// SMTPProber checks whether a mailbox accepts mail by speaking the
// envelope part of an SMTP transaction: HELO, MAIL FROM, RCPT TO. No
// message data is ever sent.
type SMTPProber struct {
	cfg    SMTPConfig
	dialer *smtpconn.Dialer
}

// NewSMTPProber creates a prober, filling config defaults.
func NewSMTPProber(cfg SMTPConfig) *SMTPProber {
	if cfg.ProbeFrom == "" {
		cfg.ProbeFrom = "check@email-validator.com"
	}
	if cfg.HeloDomain == "" {
		cfg.HeloDomain = "email-validator.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxHosts <= 0 {
		cfg.MaxHosts = 3
	}
	if cfg.CatchAllAttempts <= 0 {
		cfg.CatchAllAttempts = 5
	}
	if cfg.RandLocal == nil {
		cfg.RandLocal = randLocal
	}
	return &SMTPProber{
		cfg: cfg,
		dialer: &smtpconn.Dialer{
			Timeout: cfg.Timeout,
			Dial:    cfg.Dial,
		},
	}
}

// Probe checks the address against its MX hosts in order, at most
// MaxHosts of them. Socket errors and protocol disconnects abandon the
// current host and move to the next; only a completed RCPT dialogue
// produces a connected outcome.
func (p *SMTPProber) Probe(ctx context.Context, email, domain string, mxHosts []string) types.SMTPOutcome {
	if !p.cfg.Enabled {
		return disconnectedOutcome("smtp check disabled")
	}
	if len(mxHosts) == 0 {
		return disconnectedOutcome("no MX hosts to probe")
	}

	log := logger.FromContext(ctx)

	hosts := mxHosts
	if len(hosts) > p.cfg.MaxHosts {
		hosts = hosts[:p.cfg.MaxHosts]
	}
	for _, host := range hosts {
		if out, done := p.probeHost(ctx, log, host, email, domain); done {
			return out
		}
		if ctx.Err() != nil {
			break
		}
	}

	return disconnectedOutcome("could not connect to any MX host")
}

// probeHost runs the dialogue against one host. done is false when the
// host failed before a primary RCPT reply and the next host should be
// tried.
func (p *SMTPProber) probeHost(ctx context.Context, log zerolog.Logger, host, email, domain string) (types.SMTPOutcome, bool) {
	s, err := p.dialer.Open(ctx, host)
	if err != nil {
		log.Debug().Str("host", host).Err(err).Msg("smtp connect failed")
		return types.SMTPOutcome{}, false
	}

	code, _, err := s.Helo(ctx, p.cfg.HeloDomain)
	if err != nil {
		_ = s.Close()
		return types.SMTPOutcome{}, false
	}
	if code != 250 {
		log.Debug().Str("host", host).Int("code", code).Msg("helo rejected")
		s.Quit()
		return types.SMTPOutcome{}, false
	}

	// The MAIL FROM reply code is deliberately not inspected; servers
	// that dislike the probe sender surface it at RCPT time.
	if _, _, err := s.MailFrom(ctx, p.cfg.ProbeFrom); err != nil {
		_ = s.Close()
		return types.SMTPOutcome{}, false
	}

	code, msg, err := s.Rcpt(ctx, email)
	if err != nil {
		_ = s.Close()
		return types.SMTPOutcome{}, false
	}

	catchAll := types.SignalNo
	if code == 250 {
		catchAll = p.detectCatchAll(ctx, log, s, domain)
	}
	s.Quit()

	return classifyRcpt(code, msg, catchAll), true
}

// detectCatchAll probes random recipients on the same open connection.
// The first definitive reply wins: 250 means the domain accepts
// anything, 550 means it does not. If every attempt is inconclusive
// the answer is No; ambiguity never yields Yes.
func (p *SMTPProber) detectCatchAll(ctx context.Context, log zerolog.Logger, s *smtpconn.Session, domain string) types.Signal {
	for attempt := 0; attempt < p.cfg.CatchAllAttempts; attempt++ {
		probe := p.cfg.RandLocal(randLocalLen) + "@" + domain

		if _, _, err := s.MailFrom(ctx, p.cfg.ProbeFrom); err != nil {
			log.Debug().Str("domain", domain).Int("attempt", attempt+1).Err(err).Msg("catch-all probe failed")
			continue
		}
		code, _, err := s.Rcpt(ctx, probe)
		if err != nil {
			log.Debug().Str("domain", domain).Int("attempt", attempt+1).Err(err).Msg("catch-all probe failed")
			continue
		}

		switch code {
		case 250:
			log.Debug().Str("domain", domain).Msg("catch-all detected")
			return types.SignalYes
		case 550:
			return types.SignalNo
		default:
			// Inconclusive, keep probing.
		}
	}
	return types.SignalNo
}

// classifyRcpt maps the primary RCPT reply code to a semantic outcome.
// The exact code set mirrors what downstream consumers were built
// against.
func classifyRcpt(code int, msg string, catchAll types.Signal) types.SMTPOutcome {
	out := types.SMTPOutcome{
		Connected: true,
		Code:      code,
		CatchAll:  catchAll,
	}

	switch code {
	case 250:
		out.EmailActive = types.SignalYes
		out.MailboxFull = types.SignalNo
		out.Message = fmt.Sprintf("SUCCESS: %d - %s", code, msg)
	case 550:
		out.EmailActive = types.SignalNo
		out.MailboxFull = types.SignalNo
		out.Message = fmt.Sprintf("MAILBOX_NOT_FOUND: %d - %s", code, msg)
	case 452:
		out.EmailActive = types.SignalYes
		out.MailboxFull = types.SignalYes
		out.Message = fmt.Sprintf("MAILBOX_FULL: %d - %s", code, msg)
	case 450:
		out.EmailActive = types.SignalTempUnavailable
		out.MailboxFull = types.SignalNo
		out.Message = fmt.Sprintf("MAILBOX_UNAVAILABLE: %d - %s", code, msg)
	case 551, 553:
		out.EmailActive = types.SignalNo
		out.MailboxFull = types.SignalNo
		out.Message = fmt.Sprintf("ROUTING_ERROR: %d - %s", code, msg)
	case 421, 451:
		out.EmailActive = types.SignalTempUnavailable
		out.MailboxFull = types.SignalNo
		out.Message = fmt.Sprintf("TEMPORARY_ERROR: %d - %s", code, msg)
	case 552, 554:
		out.EmailActive = types.SignalYes
		out.MailboxFull = types.SignalYes
		out.Message = fmt.Sprintf("MAILBOX_FULL_OR_LIMIT: %d - %s", code, msg)
	default:
		// Unknown code, treated conservatively as inactive.
		out.EmailActive = types.SignalNo
		out.MailboxFull = types.SignalNo
		out.Message = fmt.Sprintf("UNKNOWN_CODE: %d - %s", code, msg)
	}
	return out
}

// disconnectedOutcome reports an address that was never probed over an
// open connection. Catch-all is No rather than Unknown so a disabled
// probe never trips the catch-all rejection policy.
func disconnectedOutcome(reason string) types.SMTPOutcome {
	return types.SMTPOutcome{
		Connected:   false,
		EmailActive: types.SignalUnknown,
		MailboxFull: types.SignalUnknown,
		CatchAll:    types.SignalNo,
		Message:     reason,
	}
}

const randLocalChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// randLocal uses the top-level math/rand functions, which are safe for
// concurrent use. Probe recipients only need to be unguessable enough
// not to collide with real mailboxes.
func randLocal(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = randLocalChars[rand.Intn(len(randLocalChars))]
	}
	return string(b)
}
