package delivery

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/crimson-sun/sieve/internal/source"
)

// collector records every line received across all connections.
type collector struct {
	mu    sync.Mutex
	lines []string
}

func (c *collector) add(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
}

func (c *collector) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

// fakeConn is an in-memory net.Conn. After dieAfter successful writes the
// peer is considered gone: reads return io.EOF. failWrite makes the write
// with that 1-based index fail while the probe still reports the peer alive.
type fakeConn struct {
	col       *collector
	dieAfter  int // 0 means never
	failWrite int // 0 means never
	writes    int
	closed    bool
}

func (c *fakeConn) Read([]byte) (int, error) {
	if c.closed {
		return 0, net.ErrClosed
	}
	if c.dieAfter > 0 && c.writes >= c.dieAfter {
		return 0, io.EOF
	}
	return 0, os.ErrDeadlineExceeded
}

func (c *fakeConn) Write(b []byte) (int, error) {
	if c.closed {
		return 0, net.ErrClosed
	}
	if c.dieAfter > 0 && c.writes >= c.dieAfter {
		return 0, errors.New("broken pipe")
	}
	if c.failWrite > 0 && c.writes+1 == c.failWrite {
		c.failWrite = 0
		return 0, errors.New("connection reset by peer")
	}
	c.writes++
	c.col.add(string(b))
	return len(b), nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func (c *fakeConn) LocalAddr() net.Addr { return &net.TCPAddr{} }
func (c *fakeConn) RemoteAddr() net.Addr { return &net.TCPAddr{} }
func (c *fakeConn) SetDeadline(time.Time) error { return nil }
func (c *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

// scriptedDialer fails the dial attempts listed in fail (1-based, counted
// across the whole run) and hands out conns in order otherwise.
type scriptedDialer struct {
	fail  map[int]bool
	conns []*fakeConn
	dials int
	next  int
}

func (d *scriptedDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.dials++
	if d.fail[d.dials] {
		return nil, errors.New("connection refused")
	}
	if d.next >= len(d.conns) {
		return nil, errors.New("connection refused")
	}
	c := d.conns[d.next]
	d.next++
	return c, nil
}

// rowSource serves rows from memory; an entry with err set yields that error.
type rowSource struct {
	items []sourceItem
	pos   int
}

type sourceItem struct {
	row source.Row
	err error
}

func rows(lines ...string) *rowSource {
	s := &rowSource{}
	for i, l := range lines {
		s.items = append(s.items, sourceItem{row: source.Row{Num: i + 2, Fields: []string{l}}})
	}
	return s
}

func (s *rowSource) Next() (source.Row, error) {
	if s.pos >= len(s.items) {
		return source.Row{}, io.EOF
	}
	it := s.items[s.pos]
	s.pos++
	return it.row, it.err
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }
