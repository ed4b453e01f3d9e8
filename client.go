package ftpwire

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/ftpwire/ftpwire/internal/ratelimit"
)

// Client represents an FTP client connection.
//
// Commands are write-only: the client never reads a reply on the calling
// goroutine. A background reader goroutine owns the receive side of the
// control connection, mirrors every reply line to the transcript and
// dispatches passive-mode (227) replies. See the package documentation
// for the transfer sequencing rules.
type Client struct {
	// conn is the underlying network connection (control channel)
	conn net.Conn

	// reader is a buffered reader for the control channel, owned by the
	// reader goroutine after Dial returns
	reader *bufio.Reader

	// timeout is the timeout for establishing connections (control and
	// data). It does not bound Passv waits; those are governed by the
	// caller's context.
	timeout time.Duration

	// idleTimeout is the maximum time to wait before sending NOOP to keep
	// the connection alive. If zero, no automatic keep-alive is performed.
	idleTimeout time.Duration

	// logger is used for debug logging
	logger *slog.Logger

	// dialer is used to establish connections
	dialer *net.Dialer

	// host and port for the connection
	host string
	port string

	// transcript receives every sent command and received reply line,
	// newline-terminated, in the order observed
	transcript io.Writer

	// transcriptMu serializes transcript writes between the caller's
	// goroutine and the reader goroutine
	transcriptMu sync.Mutex

	// limiter caps data-channel read bandwidth (nil = unlimited)
	limiter *ratelimit.Limiter

	// reservation is the data-channel mutual-exclusion gate
	reservation *reservation

	// mu protects concurrency-sensitive fields below
	mu sync.Mutex

	// lastCommand tracks the time of the last command sent
	lastCommand time.Time

	// pending is the single-slot holder for a data connection opened by
	// the reader after a 227 reply, consumed by the next List/Retr
	pending net.Conn

	// pasvWait is the one-shot completion signal for the outstanding
	// Passv call, nil when none is outstanding. A fresh channel is
	// created per Passv and never reused.
	pasvWait chan struct{}

	// quitChan signals the keep-alive goroutine to stop
	quitChan chan struct{}

	// readerDone is closed when the reader goroutine exits
	readerDone chan struct{}

	// closeOnce guards connection teardown
	closeOnce sync.Once
}

// Dial connects to an FTP server at the given address and starts the
// control-channel reader. The address should be in the form "host:port".
//
// The server greeting is not validated; like every other reply it is
// mirrored to the transcript by the reader goroutine.
//
// Example:
//
//	client, err := ftpwire.Dial("ftp.example.com:21",
//	    ftpwire.WithTranscript(os.Stdout),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Quit()
func Dial(addr string, options ...Option) (*Client, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	// Create the client with defaults
	c := &Client{
		host:        host,
		port:        port,
		timeout:     30 * time.Second,
		dialer:      &net.Dialer{},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		transcript:  io.Discard,
		reservation: newReservation(),
		readerDone:  make(chan struct{}),
	}

	// Apply options
	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	// Set dialer timeout
	c.dialer.Timeout = c.timeout

	c.logger.Debug("connecting to ftp server", "addr", addr)
	c.conn, err = c.dialer.Dial("tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c.reader = bufio.NewReader(c.conn)
	c.lastCommand = time.Now()

	// The reader goroutine owns the receive side until the connection
	// closes; it is never restarted.
	go c.readLoop()

	// Start keep-alive loop if enabled
	c.startKeepAlive()

	return c, nil
}

// Login authenticates with the FTP server. It transmits exactly two
// lines, "USER <user>" then "PASS <pass>", in that order; the server's
// verdict is only visible on the transcript.
func (c *Client) Login(user, pass string) error {
	if err := c.sendCommand("USER " + user); err != nil {
		return err
	}
	return c.sendCommand("PASS " + pass)
}

// Pwd requests the current working directory.
func (c *Client) Pwd() error {
	return c.sendCommand("PWD")
}

// Cwd changes the working directory on the server.
func (c *Client) Cwd(dir string) error {
	return c.sendCommand("CWD " + dir)
}

// Cdup moves the working directory up one level.
func (c *Client) Cdup() error {
	return c.sendCommand("CDUP")
}

// Noop sends a NOOP (no operation) command. This is used by the
// keep-alive loop to prevent the server from timing out an idle
// connection; see WithIdleTimeout.
func (c *Client) Noop() error {
	return c.sendCommand("NOOP")
}

// Passv reserves the data channel and negotiates a passive-mode data
// connection. It blocks until the previous transfer (if any) releases
// the reservation, sends PASV, and then blocks again until the reader
// has handled the 227 reply.
//
// Passv returns nil once the negotiation is signaled even if it failed
// (malformed reply, unreachable data port); those failures are recorded
// on the transcript and surface on the next List/Retr as a
// *SequenceError.
//
// Cancelling ctx unblocks either wait and fails the call. The
// reservation is not released on that path: the data channel stays
// reserved, matching the worker-releases-only lifecycle.
func (c *Client) Passv(ctx context.Context) error {
	if err := c.reservation.acquire(ctx); err != nil {
		return fmt.Errorf("ftpwire: waiting for data channel: %w", err)
	}

	// Fresh one-shot signal for this negotiation.
	wait := make(chan struct{})
	c.mu.Lock()
	c.pasvWait = wait
	c.mu.Unlock()

	if err := c.sendCommand("PASV"); err != nil {
		return err
	}

	select {
	case <-wait:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("ftpwire: waiting for passive mode reply: %w", ctx.Err())
	}
}

// List requests a directory listing over the data channel. The listing
// bytes are drained into sink by a transfer goroutine; if closeSink is
// true the sink is closed when the transfer ends.
//
// The LIST command is transmitted before the data-channel precondition
// is checked: the server must see it while the data connection is
// outstanding. If no data connection is pending the call fails with a
// *SequenceError, but the command is already on the wire.
func (c *Client) List(sink io.Writer, closeSink bool) (*Transfer, error) {
	return c.startDataCommand("LIST", sink, closeSink)
}

// Retr requests the remote file name over the data channel. The file
// bytes are drained into sink by a transfer goroutine; if closeSink is
// true the sink is closed when the transfer ends.
//
// Like List, the command is transmitted before the data-channel
// precondition is checked.
func (c *Client) Retr(name string, sink io.Writer, closeSink bool) (*Transfer, error) {
	return c.startDataCommand("RETR "+name, sink, closeSink)
}

// startDataCommand sends a transfer-initiating command, claims the
// pending data connection and hands it to a transfer worker. The pending
// slot is cleared so it can never be consumed by a later cycle.
func (c *Client) startDataCommand(cmd string, sink io.Writer, closeSink bool) (*Transfer, error) {
	if err := c.sendCommand(cmd); err != nil {
		return nil, err
	}

	c.mu.Lock()
	dataConn := c.pending
	c.pending = nil
	c.mu.Unlock()

	if dataConn == nil {
		// No rollback of the sent command.
		return nil, &SequenceError{Command: cmd}
	}

	return c.startTransfer(dataConn, sink, closeSink), nil
}

// Quit closes the connection gracefully by sending the QUIT command.
func (c *Client) Quit() error {
	if c.conn == nil {
		return nil
	}

	// Send QUIT (ignore errors, we're closing anyway)
	_ = c.sendCommand("QUIT")

	return c.Close()
}

// Close closes the control connection without sending QUIT and waits
// for the reader goroutine to exit. Safe to call after Quit.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}

	var err error
	c.closeOnce.Do(func() {
		// Stop keep-alive loop
		if c.quitChan != nil {
			close(c.quitChan)
		}

		err = c.conn.Close()
		<-c.readerDone
	})
	return err
}
