package ftpwire

import (
	"net"
	"regexp"
	"strconv"
)

// pasvRegex matches the endpoint tuple of a PASV reply anywhere in the
// line: 227 Entering Passive Mode (h1,h2,h3,h4,p1,p2). FTP convention is
// deliberately loose here, so the tuple is located rather than the whole
// reply anchored.
var pasvRegex = regexp.MustCompile(`\((\d+),(\d+),(\d+),(\d+),(\d+),(\d+)\)`)

// parsePASV parses a 227 reply line and returns the data-channel address.
// Example: "227 Entering Passive Mode (192,168,1,1,195,149)"
// Returns: "192.168.1.1:50069" (195*256 + 149 = 50069)
//
// Any deviation from the six-integer tuple grammar fails with a
// *PassiveReplyError carrying the offending line; there are no partial
// results.
func parsePASV(line string) (string, error) {
	matches := pasvRegex.FindStringSubmatch(line)
	if len(matches) != 7 {
		return "", &PassiveReplyError{Line: line}
	}

	var parts [6]int
	for i := 0; i < 6; i++ {
		val, err := strconv.Atoi(matches[i+1])
		if err != nil || val < 0 || val > 255 {
			return "", &PassiveReplyError{Line: line}
		}
		parts[i] = val
	}

	host := strconv.Itoa(parts[0]) + "." + strconv.Itoa(parts[1]) + "." +
		strconv.Itoa(parts[2]) + "." + strconv.Itoa(parts[3])
	port := parts[4]*256 + parts[5]

	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// resolveDataAddr resolves the data connection address.
// If the 227 reply advertises 0.0.0.0 (common behind NAT), the control
// connection host is substituted for it.
func resolveDataAddr(pasvAddr, controlHost string) string {
	host, port, err := net.SplitHostPort(pasvAddr)
	if err != nil {
		// If we can't split it, return as is (dialer will likely fail later)
		return pasvAddr
	}

	if host == "0.0.0.0" {
		return net.JoinHostPort(controlHost, port)
	}

	return pasvAddr
}
