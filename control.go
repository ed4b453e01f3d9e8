package ftpwire

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// sendCommand writes a single command line to the control channel and
// mirrors it to the transcript. It never waits for a reply.
func (c *Client) sendCommand(cmd string) error {
	c.logger.Debug("ftp command", "cmd", cmd)

	// Lock the client to prevent interleaved command writes
	c.mu.Lock()
	c.lastCommand = time.Now()
	_, err := fmt.Fprintf(c.conn, "%s\r\n", cmd)
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}

	c.logTranscript(cmd)
	return nil
}

// logTranscript appends one newline-terminated entry to the transcript
// sink. Transcript write failures are swallowed; the transcript never
// affects protocol outcomes.
func (c *Client) logTranscript(entry string) {
	c.transcriptMu.Lock()
	defer c.transcriptMu.Unlock()
	_, _ = io.WriteString(c.transcript, entry+"\n")
}

// readLoop is the control-channel reader/dispatcher. It runs on its own
// goroutine for the lifetime of the control connection: every reply line
// is logged to the transcript before any further processing, and 227
// replies additionally trigger the passive-mode dispatch. The loop ends
// when the connection is closed or a read fails; it is never restarted
// and never closes the control connection itself.
func (c *Client) readLoop() {
	defer close(c.readerDone)

	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			// A partial line before EOF is still a reply we observed.
			if line != "" {
				c.logTranscript(strings.TrimRight(line, "\r\n"))
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.logTranscript("control channel error: " + err.Error())
			}
			c.logger.Debug("control channel reader stopped", "err", err)
			return
		}

		line = strings.TrimRight(line, "\r\n")
		c.logTranscript(line)
		c.logger.Debug("ftp reply", "line", line)

		if strings.HasPrefix(line, "227") {
			c.dispatchPassiveReply(line)
		}
	}
}

// dispatchPassiveReply handles one 227 reply: parse the endpoint, open
// the data connection and publish it in the pending slot. Parse and dial
// failures are logged and leave the slot empty. In every case the
// outstanding negotiation (if any) is signaled exactly once, so a Passv
// caller never hangs on a failed negotiation.
func (c *Client) dispatchPassiveReply(line string) {
	var dataConn net.Conn

	addr, err := parsePASV(line)
	if err != nil {
		c.logTranscript(err.Error())
		c.logger.Debug("passive reply rejected", "line", line)
	} else {
		addr = resolveDataAddr(addr, c.host)
		dataConn, err = c.dialer.Dial("tcp", addr)
		if err != nil {
			c.logTranscript("data channel connect failed: " + err.Error())
			c.logger.Debug("data channel dial failed", "addr", addr, "err", err)
		} else {
			c.logger.Debug("data channel open", "addr", addr)
		}
	}

	c.mu.Lock()
	if dataConn != nil {
		c.pending = dataConn
	}
	wait := c.pasvWait
	c.pasvWait = nil
	c.mu.Unlock()

	if wait != nil {
		close(wait)
	}
}
