package mailward

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailward/mailward/check"
	"github.com/mailward/mailward/internal/dnsx"
	"github.com/mailward/mailward/internal/smtpconn"
	"github.com/mailward/mailward/types"
)

// fakeMailServer answers the probe dialogue on a net.Pipe connection.
// rcpt decides the reply per recipient.
func fakeMailServer(conn net.Conn, rcpt func(to string) string) {
	defer func() { _ = conn.Close() }()

	_, _ = fmt.Fprintf(conn, "220 fake.mx ESMTP\r\n")

	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		cmd := string(buf[:n])
		switch {
		case strings.HasPrefix(cmd, "HELO"), strings.HasPrefix(cmd, "MAIL FROM"):
			_, _ = fmt.Fprintf(conn, "250 OK\r\n")
		case strings.HasPrefix(cmd, "RCPT TO"):
			to := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(cmd), "RCPT TO:<"), ">")
			_, _ = fmt.Fprintf(conn, "%s\r\n", rcpt(to))
		case strings.HasPrefix(cmd, "QUIT"):
			_, _ = fmt.Fprintf(conn, "221 Bye\r\n")
			return
		default:
			_, _ = fmt.Fprintf(conn, "502 not implemented\r\n")
		}
	}
}

// testVerifier wires a Verifier to a mocked resolver and, when rcpt is
// non-nil, a fake mail server instead of live dialing.
func testVerifier(t *testing.T, opts Options, resolver dnsx.Resolver, rcpt func(to string) string) *Verifier {
	t.Helper()

	v, err := New(opts)
	require.NoError(t, err)

	v.dns = check.NewDNSChecker(resolver, time.Second)

	var dial smtpconn.DialFunc
	if rcpt != nil {
		dial = func(_ context.Context, _, _ string, _ time.Duration) (net.Conn, error) {
			client, server := net.Pipe()
			go fakeMailServer(server, rcpt)
			return client, nil
		}
	} else {
		dial = func(_ context.Context, _, _ string, _ time.Duration) (net.Conn, error) {
			return nil, fmt.Errorf("connection refused")
		}
	}
	v.prober = check.NewSMTPProber(check.SMTPConfig{
		Enabled:   !opts.DisableSMTP,
		Timeout:   time.Second,
		RandLocal: func(n int) string { return strings.Repeat("z", n) },
		Dial:      dial,
	})
	return v
}

func exampleResolver() *dnsx.MockResolver {
	return dnsx.NewMockResolver().AddMX("example.com", "mx.example.com.", 10)
}

func TestValidateOneDeliverableAddress(t *testing.T) {
	v := testVerifier(t, DefaultOptions(), exampleResolver(), func(to string) string {
		if to == "user@example.com" {
			return "250 OK"
		}
		return "550 No such user"
	})

	res := v.ValidateOne(context.Background(), "user@example.com")
	assert.True(t, res.Correct)
	assert.True(t, res.Valid)
	assert.Equal(t, types.ReliabilityHigh, res.Reliability)
	assert.Equal(t, "user", res.LocalPart)
	assert.Equal(t, "example.com", res.Domain)
	assert.Equal(t, types.SignalYes, res.DnsMxOk)
	assert.Equal(t, types.SignalYes, res.SmtpConnected)
	assert.Equal(t, types.SignalYes, res.EmailActive)
	assert.Equal(t, types.SignalYes, res.Deliverable)
	assert.Equal(t, types.SignalNo, res.CatchAll)
	assert.Equal(t, types.SignalNo, res.Disposable)
	assert.Equal(t, types.SignalNo, res.RoleAccount)
	assert.Equal(t, "10 mx.example.com", res.MxRecords)
	assert.Equal(t, 1, res.Attempts)
}

func TestValidateOneSyntaxInvalid(t *testing.T) {
	v := testVerifier(t, DefaultOptions(), exampleResolver(), nil)

	res := v.ValidateOne(context.Background(), "notanemail")
	assert.False(t, res.Correct)
	assert.False(t, res.Valid)
	assert.Equal(t, types.ReliabilityNone, res.Reliability)
	assert.Equal(t, types.SignalUnknown, res.Disposable)
	assert.Equal(t, types.SignalNo, res.DnsMxOk)
	assert.Equal(t, types.SignalNo, res.SmtpConnected)
	assert.Equal(t, types.SignalNo, res.EmailActive)
	assert.Equal(t, types.SignalNo, res.Deliverable)
	assert.Equal(t, types.SignalNo, res.CatchAll)
	assert.Equal(t, types.SignalUnknown, res.MailboxFull)
	assert.Equal(t, 1, res.Attempts)
	assert.Empty(t, res.MxRecords)
}

func TestValidateOneDisposableWithoutSMTP(t *testing.T) {
	opts := DefaultOptions()
	opts.DisableSMTP = true
	resolver := dnsx.NewMockResolver().AddMX("tempmail.com", "mx.tempmail.com.", 10)

	for _, mode := range []Mode{ModeStrict, ModeLenient} {
		opts.Mode = mode
		v := testVerifier(t, opts, resolver, nil)

		res := v.ValidateOne(context.Background(), "test@tempmail.com")
		assert.Equal(t, types.SignalYes, res.Disposable, mode)
		assert.Equal(t, types.SignalNo, res.SmtpConnected, mode)
		assert.Equal(t, types.ReliabilityNone, res.Reliability, mode)
		assert.False(t, res.Valid, mode)
	}
}

func TestValidateOneCatchAllRejected(t *testing.T) {
	v := testVerifier(t, DefaultOptions(), exampleResolver(), func(string) string {
		return "250 OK" // accepts anything
	})

	res := v.ValidateOne(context.Background(), "user@example.com")
	assert.Equal(t, types.SignalYes, res.CatchAll)
	assert.Equal(t, types.ReliabilityHigh, res.Reliability)
	assert.False(t, res.Valid)
}

func TestValidateOneCatchAllAccepted(t *testing.T) {
	opts := DefaultOptions()
	opts.AcceptCatchAll = true
	v := testVerifier(t, opts, exampleResolver(), func(string) string {
		return "250 OK"
	})

	res := v.ValidateOne(context.Background(), "user@example.com")
	assert.Equal(t, types.SignalYes, res.CatchAll)
	assert.True(t, res.Valid)
}

func TestValidateOneSuspiciousDomain(t *testing.T) {
	resolver := dnsx.NewMockResolver().AddMX("gmai1.com", "mx.gmai1.com.", 10)
	accept := func(to string) string {
		if strings.HasPrefix(to, "user@") {
			return "250 OK"
		}
		return "550 No such user"
	}

	opts := DefaultOptions()
	v := testVerifier(t, opts, resolver, accept)
	res := v.ValidateOne(context.Background(), "user@gmai1.com")
	assert.Equal(t, types.ReliabilityMedium, res.Reliability)
	assert.False(t, res.Valid)

	opts.Mode = ModeLenient
	v = testVerifier(t, opts, resolver, accept)
	res = v.ValidateOne(context.Background(), "user@gmai1.com")
	assert.Equal(t, types.ReliabilityMedium, res.Reliability)
	assert.True(t, res.Valid)
}

func TestValidateOneNoConnection(t *testing.T) {
	v := testVerifier(t, DefaultOptions(), exampleResolver(), nil)

	res := v.ValidateOne(context.Background(), "user@example.com")
	assert.True(t, res.Correct)
	assert.Equal(t, types.SignalYes, res.DnsMxOk)
	assert.Equal(t, types.SignalNo, res.SmtpConnected)
	assert.Equal(t, types.SignalUnknown, res.EmailActive)
	assert.Equal(t, types.SignalUnknown, res.Deliverable)
	assert.Equal(t, types.ReliabilityNone, res.Reliability)
	assert.False(t, res.Valid)
}

func TestValidateOneTemporaryError(t *testing.T) {
	v := testVerifier(t, DefaultOptions(), exampleResolver(), func(string) string {
		return "450 greylisted, try later"
	})

	res := v.ValidateOne(context.Background(), "user@example.com")
	assert.Equal(t, types.SignalTempUnavailable, res.EmailActive)
	assert.Equal(t, types.SignalUnknown, res.Deliverable)
	assert.Equal(t, types.ReliabilityNone, res.Reliability)
	assert.False(t, res.Valid)
}

func TestValidateOneNxDomain(t *testing.T) {
	resolver := dnsx.NewMockResolver().Fail("gone.example", dnsx.ErrNotFound)
	v := testVerifier(t, DefaultOptions(), resolver, nil)

	res := v.ValidateOne(context.Background(), "user@gone.example")
	assert.True(t, res.Correct)
	assert.Equal(t, types.SignalNo, res.DnsMxOk)
	assert.Equal(t, types.SignalNo, res.SmtpConnected)
	assert.Equal(t, types.ReliabilityNone, res.Reliability)
}

func TestNewRejectsUnknownMode(t *testing.T) {
	opts := DefaultOptions()
	opts.Mode = "paranoid"
	_, err := New(opts)
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestNewMissingDisposableFile(t *testing.T) {
	opts := DefaultOptions()
	opts.DisposableFile = "/does/not/exist.txt"
	_, err := New(opts)
	assert.Error(t, err)
}
