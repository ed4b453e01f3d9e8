package ftpwire

import (
	"io"
	"net"

	"github.com/google/uuid"

	"github.com/ftpwire/ftpwire/internal/ratelimit"
)

// transferChunkSize is the fixed buffer size used to drain a data
// connection into its sink.
const transferChunkSize = 4096

// flusher is implemented by sinks that buffer writes (e.g. bufio.Writer).
type flusher interface {
	Flush() error
}

// Transfer is the handle for one data-channel drain running on its own
// goroutine. The initiating List/Retr call does not wait for it; use
// Done or Wait to observe completion.
type Transfer struct {
	id   string
	done chan struct{}
	err  error
}

// ID returns the unique identifier of this transfer, as used in debug
// log entries.
func (t *Transfer) ID() string {
	return t.id
}

// Done returns a channel that is closed when the transfer has finished
// and the data channel has been released.
func (t *Transfer) Done() <-chan struct{} {
	return t.done
}

// Err returns the transfer outcome. It is only meaningful once Done is
// closed; before that it returns nil.
func (t *Transfer) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the transfer has finished and returns its outcome.
func (t *Transfer) Wait() error {
	<-t.done
	return t.err
}

// startTransfer launches the worker goroutine that drains dataConn into
// sink. The caller must hold the data-channel reservation; the worker is
// its sole releaser.
func (c *Client) startTransfer(dataConn net.Conn, sink io.Writer, closeSink bool) *Transfer {
	t := &Transfer{
		id:   uuid.NewString(),
		done: make(chan struct{}),
	}

	c.logger.Debug("transfer started", "id", t.id)
	go c.runTransfer(t, dataConn, sink, closeSink)

	return t
}

// runTransfer copies all bytes from the data connection to the sink in
// fixed-size chunks until end-of-stream, then flushes the sink. On any
// I/O failure the copy is abandoned; there are no retries. Cleanup runs
// unconditionally: close the source (swallowing errors), close the sink
// if requested (swallowing errors), and finally release the data-channel
// reservation so the next Passv can proceed.
func (c *Client) runTransfer(t *Transfer, dataConn net.Conn, sink io.Writer, closeSink bool) {
	defer close(t.done)
	defer c.reservation.release()
	defer func() {
		_ = dataConn.Close()
		if closeSink {
			if closer, ok := sink.(io.Closer); ok {
				_ = closer.Close()
			}
		}
	}()

	src := ratelimit.NewReader(dataConn, c.limiter)

	buf := make([]byte, transferChunkSize)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := sink.Write(buf[:n]); writeErr != nil {
				t.err = writeErr
				break
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			t.err = readErr
			break
		}
	}

	if t.err == nil {
		if f, ok := sink.(flusher); ok {
			t.err = f.Flush()
		}
	}

	c.logger.Debug("transfer finished", "id", t.id, "err", t.err)
}
