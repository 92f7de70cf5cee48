// Package mailward verifies email deliverability without sending mail.
// The pipeline runs syntax validation, DNS MX resolution, domain
// reputation checks and a live SMTP recipient probe, then folds the
// collected signals into a reliability tier and a final mailing
// decision.
package mailward

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/mailward/mailward/check"
	"github.com/mailward/mailward/internal/disposable"
	"github.com/mailward/mailward/internal/dnscache"
	"github.com/mailward/mailward/internal/dnsx"
	"github.com/mailward/mailward/internal/logger"
	"github.com/mailward/mailward/internal/parse"
	"github.com/mailward/mailward/types"
)

// mxHostLimit is how many resolved MX records are reported, and the
// pool the prober draws its hosts from.
const mxHostLimit = 5

// Verifier runs the validation pipeline. It is safe for concurrent
// use; per-address state lives on the stack of each call.
type Verifier struct {
	// OnCheckpoint, when set before the batch starts, receives a
	// snapshot of completed results every Options.CheckpointEvery
	// addresses. Used by callers that persist intermediate artifacts.
	OnCheckpoint CheckpointFunc

	opts       Options
	classifier *check.DomainClassifier
	dns        *check.DNSChecker
	prober     *check.SMTPProber
	log        zerolog.Logger
}

// New creates a Verifier. The disposable-domain list starts from the
// built-in set and, when Options.DisposableFile is set, is extended
// from that file; a missing file is an error.
func New(opts Options) (*Verifier, error) {
	opts = opts.withDefaults()
	if opts.Mode != ModeStrict && opts.Mode != ModeLenient {
		return nil, ErrInvalidMode
	}

	disposables := disposable.Default()
	if opts.DisposableFile != "" {
		if _, err := disposables.LoadFile(opts.DisposableFile); err != nil {
			return nil, err
		}
	}

	resolver := dnsx.NewResolver(dnsx.Config{Timeout: opts.Timeout})
	cache := dnscache.New(resolver, opts.DNSCacheTTL)

	return &Verifier{
		opts:       opts,
		classifier: check.NewDomainClassifier(disposables),
		dns:        check.NewDNSChecker(cache, opts.Timeout),
		prober: check.NewSMTPProber(check.SMTPConfig{
			Enabled:    !opts.DisableSMTP,
			ProbeFrom:  opts.ProbeFrom,
			HeloDomain: opts.HeloDomain,
			Timeout:    opts.Timeout,
			MaxHosts:   3,
		}),
		log: logger.New(opts.LogLevel),
	}, nil
}

// ValidateOne verifies a single address. It never returns an error:
// anything attributable to the address itself is folded into the
// result record.
func (v *Verifier) ValidateOne(ctx context.Context, address string) Result {
	return v.validateOne(ctx, address, 1)
}

// validateOne runs the full pipeline. attempts is owned by the batch
// orchestrator; standalone callers pass 1.
func (v *Verifier) validateOne(ctx context.Context, address string, attempts int) Result {
	start := time.Now()
	ctx = logger.WithLogger(ctx, v.log)

	addr := parse.NewAddress(address)

	res := Result{
		Email:     addr.Raw,
		LocalPart: addr.Local,
		Domain:    addr.Domain,
		Attempts:  attempts,
	}

	syntaxValid, syntaxMsg := check.CheckSyntax(addr.Raw)
	if !syntaxValid {
		// Downstream checks never ran; report the conservative
		// defaults the result contract promises for this case.
		res.Correct = false
		res.Valid = false
		res.Reliability = types.ReliabilityNone
		res.Disposable = types.SignalUnknown
		res.DnsMxOk = types.SignalNo
		res.SmtpConnected = types.SignalNo
		res.EmailActive = types.SignalNo
		res.Deliverable = types.SignalNo
		res.CatchAll = types.SignalNo
		res.MailboxFull = types.SignalUnknown
		res.RoleAccount = types.SignalNo
		res.Message = syntaxMsg
		res.ElapsedSeconds = elapsedSeconds(start)
		return res
	}

	dnsOut := v.dns.Resolve(ctx, addr.Domain)
	suspicious := v.classifier.IsSuspicious(addr.Domain)
	disposableDomain := v.classifier.IsDisposable(addr.Domain)
	roleAccount := v.classifier.IsRoleAccount(addr.Local)

	smtpOut := v.prober.Probe(ctx, addr.Raw, addr.Domain, dnsOut.Hosts(mxHostLimit))

	signals := types.Signals{
		SyntaxValid:      true,
		DNSValid:         dnsOut.Valid(),
		SMTPConnected:    smtpOut.Connected,
		SMTPEnabled:      !v.opts.DisableSMTP,
		EmailActive:      smtpOut.EmailActive,
		MailboxFull:      smtpOut.MailboxFull,
		CatchAll:         smtpOut.CatchAll,
		Disposable:       disposableDomain,
		RoleAccount:      roleAccount,
		SuspiciousDomain: suspicious,
	}

	tier := ClassifyReliability(signals)

	res.Correct = true
	res.Valid = ValidForMailing(signals, tier, v.opts.Mode, v.opts.AcceptCatchAll)
	res.Reliability = tier
	res.Disposable = boolSignal(disposableDomain)
	res.DnsMxOk = boolSignal(dnsOut.Valid())
	res.SmtpConnected = boolSignal(smtpOut.Connected)
	res.EmailActive = smtpOut.EmailActive
	res.Deliverable = signals.Deliverable()
	res.CatchAll = collapseCatchAll(smtpOut.CatchAll)
	res.MailboxFull = smtpOut.MailboxFull
	res.RoleAccount = boolSignal(roleAccount)
	res.MxRecords = dnsOut.Text(mxHostLimit)
	res.Message = smtpOut.Message
	res.ElapsedSeconds = elapsedSeconds(start)
	return res
}

// collapseCatchAll maps an indeterminate catch-all signal to No so the
// result column only ever shows Yes or No.
func collapseCatchAll(s types.Signal) types.Signal {
	if s == types.SignalYes {
		return types.SignalYes
	}
	return types.SignalNo
}

func elapsedSeconds(start time.Time) float64 {
	return math.Round(time.Since(start).Seconds()*100) / 100
}
