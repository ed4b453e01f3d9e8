package ftpwire

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/ftpwire/ftpwire/internal/ratelimit"
)

// Option is a functional option for configuring an FTP client.
type Option func(*Client) error

// WithTranscript sets the sink that receives the protocol transcript:
// every command sent and every reply line received, each entry
// newline-terminated, in the exact order observed. Writes from the
// caller's goroutine and the reader goroutine are serialized; write
// errors are swallowed.
//
// By default the transcript is discarded.
//
// Example:
//
//	client, _ := ftpwire.Dial("ftp.example.com:21",
//	    ftpwire.WithTranscript(os.Stdout),
//	)
func WithTranscript(w io.Writer) Option {
	return func(c *Client) error {
		if w == nil {
			return fmt.Errorf("transcript sink must not be nil")
		}
		c.transcript = w
		return nil
	}
}

// WithTimeout sets the timeout for establishing connections (both the
// control connection and passive-mode data connections).
//
// It deliberately does not bound the Passv waits: those are governed by
// the caller's context, and with context.Background a stalled server
// blocks indefinitely.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.timeout = timeout
		return nil
	}
}

// WithIdleTimeout sets the maximum idle time before sending NOOP
// keep-alive. If the connection is idle for longer than this duration, a
// NOOP command is sent automatically to prevent the server from closing
// the connection. Set to 0 to disable automatic keep-alive (the
// default).
func WithIdleTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.idleTimeout = timeout
		return nil
	}
}

// WithLogger enables debug logging using the provided logger.
// Commands, replies and transfer lifecycle events are logged at debug
// level. This is separate from the transcript, which records the raw
// protocol lines.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithDialer sets a custom net.Dialer for establishing connections.
// This can be used to configure source addresses, keep-alive settings, etc.
func WithDialer(dialer *net.Dialer) Option {
	return func(c *Client) error {
		c.dialer = dialer
		return nil
	}
}

// WithTransferRate caps the data-channel read bandwidth to the given
// number of bytes per second. Zero or negative disables the cap (the
// default).
func WithTransferRate(bytesPerSecond int64) Option {
	return func(c *Client) error {
		c.limiter = ratelimit.New(bytesPerSecond)
		return nil
	}
}
