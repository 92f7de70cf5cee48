package mailward

import "github.com/mailward/mailward/types"

// Result is the terminal record for one address. The field names form
// a stable contract consumed by spreadsheet export and color-coding in
// downstream result writers; reorder freely, rename never. A Result is
// immutable once produced.
type Result struct {
	// Email is the address as submitted, trimmed.
	Email     string `json:"Email"`
	LocalPart string `json:"LocalPart"`
	Domain    string `json:"Domain"`

	// Valid is the final valid-for-mailing decision under the
	// configured mode. Correct reports syntax validity only.
	Valid   bool `json:"Valid"`
	Correct bool `json:"Correct"`

	Reliability types.Reliability `json:"Reliability"`

	Disposable    types.Signal `json:"Disposable"`
	DnsMxOk       types.Signal `json:"DnsMxOk"`
	SmtpConnected types.Signal `json:"SmtpConnected"`
	EmailActive   types.Signal `json:"EmailActive"`
	Deliverable   types.Signal `json:"Deliverable"`
	CatchAll      types.Signal `json:"CatchAll"`
	MailboxFull   types.Signal `json:"MailboxFull"`
	RoleAccount   types.Signal `json:"RoleAccount"`

	// ElapsedSeconds is wall-clock time spent on this address.
	ElapsedSeconds float64 `json:"ElapsedSeconds"`
	// Attempts counts how many times this address entered validation,
	// including attempts that ended in an internal failure.
	Attempts int `json:"Attempts"`
	// MxRecords holds "preference host" lines for up to five records.
	MxRecords string `json:"MxRecords"`

	// Message carries the raw diagnostic of the decisive check.
	Message string `json:"Message,omitempty"`
}

func boolSignal(b bool) types.Signal {
	if b {
		return types.SignalYes
	}
	return types.SignalNo
}
