package mailward

import "github.com/mailward/mailward/types"

// ClassifyReliability folds the collected signals into a confidence
// tier. Pure function of its input.
//
// An indeterminate activity signal still qualifies for Medium; a
// temporarily unavailable mailbox does not. That asymmetry is the
// deployed business policy and is preserved exactly.
func ClassifyReliability(s types.Signals) types.Reliability {
	base := s.SyntaxValid && s.DNSValid && s.SMTPConnected &&
		!s.Disposable && s.MailboxFull != types.SignalYes

	if base && s.EmailActive == types.SignalYes && !s.SuspiciousDomain {
		return types.ReliabilityHigh
	}
	if base && (s.EmailActive == types.SignalYes || s.EmailActive == types.SignalUnknown) {
		return types.ReliabilityMedium
	}
	return types.ReliabilityNone
}

// ValidForMailing applies the policy for the given mode on top of the
// reliability tier. When acceptCatchAll is false a catch-all domain is
// rejected regardless of every other signal.
func ValidForMailing(s types.Signals, tier types.Reliability, mode Mode, acceptCatchAll bool) bool {
	if !acceptCatchAll && s.CatchAll == types.SignalYes {
		return false
	}

	deliverable := s.Deliverable()

	switch mode {
	case ModeLenient:
		return (tier == types.ReliabilityHigh || tier == types.ReliabilityMedium) &&
			(s.SMTPConnected || s.DNSValid) &&
			(s.EmailActive == types.SignalYes || s.EmailActive == types.SignalUnknown || !s.SMTPEnabled) &&
			(deliverable == types.SignalYes || deliverable == types.SignalUnknown) &&
			!s.Disposable &&
			s.MailboxFull != types.SignalYes
	default: // strict
		return tier == types.ReliabilityHigh &&
			s.SMTPConnected &&
			s.EmailActive == types.SignalYes &&
			deliverable == types.SignalYes &&
			!s.Disposable &&
			s.MailboxFull != types.SignalYes &&
			!s.SuspiciousDomain
	}
}
