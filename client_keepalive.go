package ftpwire

import "time"

// startKeepAlive starts a goroutine that sends NOOP commands
// if the connection has been idle for the configured idleTimeout.
func (c *Client) startKeepAlive() {
	if c.idleTimeout == 0 {
		return
	}

	c.quitChan = make(chan struct{})

	// We use a ticker that runs at half the idle timeout to be safe
	ticker := time.NewTicker(c.idleTimeout / 2)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				// Skip while the data channel is reserved: a transfer or
				// negotiation is in flight
				if c.reservation.held() {
					continue
				}

				c.mu.Lock()
				last := c.lastCommand
				c.mu.Unlock()

				// If time since last command is greater than idle timeout, send NOOP
				if time.Since(last) >= c.idleTimeout {
					c.logger.Debug("sending keep-alive NOOP")
					// Ignore errors (connection might be closed)
					_ = c.Noop()
				}
			case <-c.quitChan:
				return
			}
		}
	}()
}
