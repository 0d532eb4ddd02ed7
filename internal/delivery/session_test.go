package delivery

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

// scriptConn returns canned read errors.
type scriptConn struct {
	fakeConn
	readErr error
}

func (c *scriptConn) Read([]byte) (int, error) { return 0, c.readErr }

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }
func (timeoutErr) Temporary() bool { return true }

func TestSessionAlive(t *testing.T) {
	tests := []struct {
		name    string
		readErr error
		want    bool
	}{
		{"read deadline", timeoutErr{}, true},
		{"peer closed", io.EOF, false},
		{"reset", errors.New("connection reset by peer"), false},
		{"closed locally", net.ErrClosed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(&scriptConn{readErr: tt.readErr}, 0, time.Millisecond)
			if got := s.Alive(); got != tt.want {
				t.Errorf("Alive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSessionAliveDisabled(t *testing.T) {
	s := newSession(&scriptConn{readErr: io.EOF}, 0, 0)
	if !s.Alive() {
		t.Error("zero probe timeout should skip the check")
	}
}

func TestSessionConsecutiveFailures(t *testing.T) {
	col := &collector{}
	conn := &fakeConn{col: col, failWrite: 1}
	s := newSession(conn, time.Second, time.Millisecond)

	if err := s.Send("a\n"); err == nil {
		t.Fatal("expected first write to fail")
	}
	if s.Failures() != 1 {
		t.Errorf("Failures() = %d, want 1", s.Failures())
	}
	if err := s.Send("b\n"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if s.Failures() != 0 {
		t.Errorf("Failures() = %d after success, want 0", s.Failures())
	}
	if got := col.received(); len(got) != 1 || got[0] != "b\n" {
		t.Errorf("received = %q", got)
	}
}
