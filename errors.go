package ftpwire

import "fmt"

// PassiveReplyError indicates that a 227 reply did not contain the
// six-integer parenthesized tuple (h1,h2,h3,h4,p1,p2) describing the
// data-channel endpoint. It carries the offending line verbatim.
type PassiveReplyError struct {
	// Line is the reply line as read from the control channel
	Line string
}

// Error implements the error interface.
func (e *PassiveReplyError) Error() string {
	return fmt.Sprintf("ftpwire: malformed passive mode reply: %q", e.Line)
}

// SequenceError indicates that a transfer command was issued without a
// pending data connection, i.e. without a preceding successful Passv.
//
// Note that the wire command has already been transmitted by the time
// this error is returned; see List and Retr.
type SequenceError struct {
	// Command is the FTP command that was sent (e.g. "LIST", "RETR file")
	Command string
}

// Error implements the error interface.
func (e *SequenceError) Error() string {
	return fmt.Sprintf("ftpwire: %s: data channel not initiated; call Passv first", e.Command)
}
