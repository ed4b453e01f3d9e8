package ftpwire

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// testServer is a scripted FTP server for exercising the client against
// a real TCP stack. It accepts a single control connection, answers the
// commands it receives with canned replies, and serves one queued
// payload per PASV cycle on a fresh data listener.
type testServer struct {
	ln net.Listener

	// pasvReply, when set, is sent verbatim in response to PASV instead
	// of opening a data listener
	pasvReply string

	// silentPASV suppresses any reply to PASV
	silentPASV bool

	mu          sync.Mutex
	commands    []string
	payloads    [][]byte
	controlConn net.Conn

	wg sync.WaitGroup
}

func newTestServer(t *testing.T, payloads ...[]byte) *testServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	s := &testServer{ln: ln, payloads: payloads}
	s.wg.Add(1)
	go s.serve()
	return s
}

func (s *testServer) addr() string {
	return s.ln.Addr().String()
}

// commandsSeen returns a copy of the command lines received so far.
func (s *testServer) commandsSeen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// closeControl drops the control connection, simulating a server-side
// disconnect.
func (s *testServer) closeControl() {
	s.mu.Lock()
	conn := s.controlConn
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// close tears the server down and waits for all of its goroutines.
func (s *testServer) close() {
	_ = s.ln.Close()
	s.closeControl()
	s.wg.Wait()
}

func (s *testServer) serve() {
	defer s.wg.Done()

	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	s.mu.Lock()
	s.controlConn = conn
	s.mu.Unlock()

	fmt.Fprintf(conn, "220 test server ready\r\n")

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")

		s.mu.Lock()
		s.commands = append(s.commands, line)
		s.mu.Unlock()

		verb := line
		if i := strings.IndexByte(line, ' '); i >= 0 {
			verb = line[:i]
		}

		switch verb {
		case "USER":
			fmt.Fprintf(conn, "331 User name okay, need password\r\n")
		case "PASS":
			fmt.Fprintf(conn, "230 User logged in\r\n")
		case "PWD":
			fmt.Fprintf(conn, "257 \"/\" is the current directory\r\n")
		case "CWD", "CDUP":
			fmt.Fprintf(conn, "250 Requested file action okay\r\n")
		case "NOOP":
			fmt.Fprintf(conn, "200 NOOP ok\r\n")
		case "PASV":
			s.handlePASV(conn)
		case "LIST", "RETR":
			fmt.Fprintf(conn, "150 Opening data connection\r\n")
		case "QUIT":
			fmt.Fprintf(conn, "221 Goodbye\r\n")
			return
		default:
			fmt.Fprintf(conn, "500 Unknown command\r\n")
		}
	}
}

func (s *testServer) handlePASV(conn net.Conn) {
	if s.silentPASV {
		return
	}
	if s.pasvReply != "" {
		fmt.Fprintf(conn, "%s\r\n", s.pasvReply)
		return
	}

	dataLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Fprintf(conn, "421 cannot open data listener\r\n")
		return
	}

	s.mu.Lock()
	var payload []byte
	if len(s.payloads) > 0 {
		payload = s.payloads[0]
		s.payloads = s.payloads[1:]
	}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer dataLn.Close()
		if tcp, ok := dataLn.(*net.TCPListener); ok {
			_ = tcp.SetDeadline(time.Now().Add(5 * time.Second))
		}
		dc, err := dataLn.Accept()
		if err != nil {
			return
		}
		_, _ = dc.Write(payload)
		_ = dc.Close()
	}()

	port := dataLn.Addr().(*net.TCPAddr).Port
	fmt.Fprintf(conn, "227 Entering Passive Mode (127,0,0,1,%d,%d).\r\n", port/256, port%256)
}

// syncBuffer is a transcript sink safe for concurrent reads from the
// test while the client is still writing.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// waitFor polls cond until it holds or the bounded delay elapses.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}
