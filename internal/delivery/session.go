package delivery

import (
	"errors"
	"io"
	"net"
	"os"
	"time"
)

// Session is one connection to the collector. It is not safe for
// concurrent use; the client drives it from a single goroutine.
type Session struct {
	conn         net.Conn
	writeTimeout time.Duration
	probeTimeout time.Duration
	failures     int
	probe        [1]byte
}

func newSession(conn net.Conn, writeTimeout, probeTimeout time.Duration) *Session {
	return &Session{conn: conn, writeTimeout: writeTimeout, probeTimeout: probeTimeout}
}

// Send writes line in full or returns an error. A partial write counts as a
// failure and the line must be treated as lost.
func (s *Session) Send(line string) error {
	if s.writeTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			s.failures++
			return err
		}
	}
	if _, err := io.WriteString(s.conn, line); err != nil {
		s.failures++
		return err
	}
	s.failures = 0
	return nil
}

// Alive probes the connection with a short read. The collector never
// writes back, so a read timeout means the peer is still there while EOF
// or any other error means it has gone away. A zero probe timeout skips
// the check.
func (s *Session) Alive() bool {
	if s.probeTimeout <= 0 {
		return true
	}
	if err := s.conn.SetReadDeadline(time.Now().Add(s.probeTimeout)); err != nil {
		return false
	}
	_, err := s.conn.Read(s.probe[:])
	_ = s.conn.SetReadDeadline(time.Time{})
	if err == nil {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	s.failures++
	return false
}

// Failures is the number of consecutive failed operations.
func (s *Session) Failures() int { return s.failures }

// Close closes the connection.
func (s *Session) Close() error {
	return s.conn.Close()
}
