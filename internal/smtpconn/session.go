// Package smtpconn implements a minimal SMTP client session for
// recipient probing. A Session covers a single connection: banner,
// HELO, MAIL FROM, then any number of RCPT TO commands, so follow-up
// probes on the same domain observe the same server state.
package smtpconn

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// DialFunc opens the transport connection. Injectable for testing;
// defaults to net.DialTimeout.
type DialFunc func(ctx context.Context, network, address string, timeout time.Duration) (net.Conn, error)

func defaultDial(_ context.Context, network, address string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout(network, address, timeout)
}

// Session is a single SMTP connection. It is not safe for concurrent
// use; each probe owns its session.
type Session struct {
	conn    net.Conn
	reader  *bufio.Reader
	writer  *bufio.Writer
	timeout time.Duration
}

// Dialer creates sessions against MX hosts on port 25.
type Dialer struct {
	// Timeout bounds the connect and each command round-trip.
	Timeout time.Duration
	// Port defaults to "25".
	Port string
	// Dial is injectable for testing.
	Dial DialFunc
}

// Open connects to the host and consumes the 220 greeting. A greeting
// with code >= 400 closes the connection and returns an error.
func (d *Dialer) Open(ctx context.Context, host string) (*Session, error) {
	dial := d.Dial
	if dial == nil {
		dial = defaultDial
	}
	port := d.Port
	if port == "" {
		port = "25"
	}

	address := net.JoinHostPort(strings.TrimSuffix(host, "."), port)
	conn, err := dial(ctx, "tcp", address, d.Timeout)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", address, err)
	}

	s := &Session{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		writer:  bufio.NewWriter(conn),
		timeout: d.Timeout,
	}

	code, msg, err := s.read(ctx)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read greeting: %w", err)
	}
	if code >= 400 {
		_ = conn.Close()
		return nil, fmt.Errorf("server refused connection: %d %s", code, msg)
	}
	return s, nil
}

// Helo sends HELO with the given domain.
func (s *Session) Helo(ctx context.Context, domain string) (int, string, error) {
	return s.command(ctx, fmt.Sprintf("HELO %s\r\n", domain))
}

// MailFrom sends MAIL FROM with the given sender address.
func (s *Session) MailFrom(ctx context.Context, from string) (int, string, error) {
	return s.command(ctx, fmt.Sprintf("MAIL FROM:<%s>\r\n", from))
}

// Rcpt sends RCPT TO with the given recipient address.
func (s *Session) Rcpt(ctx context.Context, to string) (int, string, error) {
	return s.command(ctx, fmt.Sprintf("RCPT TO:<%s>\r\n", to))
}

// Quit sends QUIT best-effort and closes the connection.
func (s *Session) Quit() {
	_ = s.conn.SetDeadline(time.Now().Add(2 * time.Second))
	_, _ = s.writer.WriteString("QUIT\r\n")
	_ = s.writer.Flush()
	_ = s.conn.Close()
}

// Close closes the connection without QUIT.
func (s *Session) Close() error {
	return s.conn.Close()
}

// command sends one SMTP command and reads the response, bounded by
// the session timeout and the context deadline.
func (s *Session) command(ctx context.Context, cmd string) (int, string, error) {
	if err := ctx.Err(); err != nil {
		return 0, "", err
	}
	if err := s.setDeadline(ctx); err != nil {
		return 0, "", fmt.Errorf("set deadline: %w", err)
	}
	if _, err := s.writer.WriteString(cmd); err != nil {
		return 0, "", err
	}
	if err := s.writer.Flush(); err != nil {
		return 0, "", err
	}
	return readResponse(s.reader)
}

func (s *Session) read(ctx context.Context) (int, string, error) {
	if err := s.setDeadline(ctx); err != nil {
		return 0, "", fmt.Errorf("set deadline: %w", err)
	}
	return readResponse(s.reader)
}

func (s *Session) setDeadline(ctx context.Context) error {
	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return s.conn.SetDeadline(deadline)
}

// readResponse reads a (possibly multi-line) SMTP response.
func readResponse(r *bufio.Reader) (code int, full string, err error) {
	var lines []string
	for {
		line, readErr := r.ReadString('\n')
		if readErr != nil {
			return 0, "", fmt.Errorf("read SMTP response: %w", readErr)
		}
		line = strings.TrimRight(line, "\r\n")
		if len(line) < 3 {
			return 0, "", errors.New("SMTP response line too short")
		}
		lines = append(lines, line)
		// If the 4th character is not '-', this is the last line
		if len(line) < 4 || line[3] != '-' {
			break
		}
	}

	lastLine := lines[len(lines)-1]
	if _, err := fmt.Sscanf(lastLine[:3], "%d", &code); err != nil {
		return 0, "", fmt.Errorf("invalid SMTP response code %q: %w", lastLine[:3], err)
	}
	return code, strings.Join(lines, " | "), nil
}
