// Package ftpwire implements a passive-mode FTP client built around an
// asynchronous control channel.
//
// # Overview
//
// Unlike request/response FTP clients, this package sends commands
// write-only: a background reader goroutine owns the control connection's
// receive side for the lifetime of the connection, mirrors every reply
// line to a transcript sink, and interprets exactly one reply
// structurally — the 227 "Entering Passive Mode" reply, from which it
// opens the data connection for the next transfer.
//
// The package provides:
//   - A control-channel reader/dispatcher running for the connection's
//     lifetime
//   - Passive-mode (PASV) negotiation with a one-shot completion signal
//     per call
//   - A data-channel reservation guaranteeing at most one passive-mode
//     session in flight at a time
//   - A transfer worker that drains the data connection into any
//     io.Writer sink
//   - A verbatim protocol transcript of every command sent and reply
//     received, in observed order
//
// # Basic Usage
//
// Connect, authenticate and list a directory:
//
//	client, err := ftpwire.Dial("ftp.example.com:21",
//	    ftpwire.WithTranscript(os.Stdout),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Quit()
//
//	if err := client.Login("anonymous", "anonymous@"); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := client.Passv(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	transfer, err := client.List(os.Stdout, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := transfer.Wait(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Transfer Sequencing
//
// Every LIST or RETR must be preceded by a successful Passv call. Passv
// blocks until the previous transfer (if any) has released the data
// channel and the server's 227 reply has been handled. Calling List or
// Retr without a pending data connection fails with a *SequenceError.
// The transfer itself runs on its own goroutine; use Transfer.Wait or
// Transfer.Done to observe completion.
//
// # Waits and Cancellation
//
// Passv takes a context.Context and honors cancellation both while
// waiting for the data channel to become free and while waiting for the
// 227 reply. There is no built-in timeout: with context.Background a
// stalled server blocks indefinitely, so callers who need bounded waits
// should pass a context with a deadline.
//
// # Error Handling
//
// Malformed 227 replies and failed data-connection dials do not fail the
// Passv call; they are recorded on the transcript and surface on the next
// List/Retr as a *SequenceError. Use errors.As to detect the typed
// errors:
//
//	if _, err := client.List(sink, false); err != nil {
//	    var seqErr *ftpwire.SequenceError
//	    if errors.As(err, &seqErr) {
//	        // PASV negotiation did not produce a data connection
//	    }
//	}
package ftpwire
