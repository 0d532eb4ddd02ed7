// Package delivery replays source rows to a log collector over a single
// persistent TCP connection, reconnecting with a bounded retry policy when
// the collector goes away.
//
// Delivery is at-most-once: a line whose write fails is dropped, never
// resent, and rows are sent in source order.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/crimson-sun/sieve/internal/logging"
	"github.com/crimson-sun/sieve/internal/metrics"
	"github.com/crimson-sun/sieve/internal/retry"
	"github.com/crimson-sun/sieve/internal/source"
)

var (
	// ErrConnect means the initial connection could not be established.
	ErrConnect = errors.New("delivery: could not connect to collector")
	// ErrReconnect means a lost connection could not be re-established.
	ErrReconnect = errors.New("delivery: could not reconnect to collector")
)

// Source yields rows in order. Next returns io.EOF after the last row and a
// *source.RowError for a row that should be skipped.
type Source interface {
	Next() (source.Row, error)
}

// Dialer opens connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Config controls a replay run.
type Config struct {
	Address        string
	SendDelay      time.Duration // pause between lines; 0 sends unpaced
	Retry          retry.Policy
	ConnectTimeout time.Duration // per attempt
	WriteTimeout   time.Duration
	ProbeTimeout   time.Duration // liveness probe before each write; 0 disables
	ProgressEvery  int           // log every N lines sent; 0 disables
}

// Report summarizes a run.
type Report struct {
	Sent       int
	Skipped    int
	Dropped    int
	Reconnects int
}

// Client streams rows to a collector.
type Client struct {
	cfg    Config
	dialer Dialer
	sleep  retry.SleepFunc
	log    zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDialer replaces the TCP dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithSleep replaces the pause between connection attempts.
func WithSleep(fn retry.SleepFunc) Option {
	return func(c *Client) { c.sleep = fn }
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a Client.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		dialer: &net.Dialer{},
		sleep:  retry.Sleep,
		log:    logging.WithComponent("delivery"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run connects, then sends every row of src in order. It returns when src
// is exhausted, ctx ends, or the connection cannot be re-established. A run
// that never connects returns an error wrapping ErrConnect and a zero
// Report; reconnect exhaustion returns the report so far and an error
// wrapping ErrReconnect.
func (c *Client) Run(ctx context.Context, src Source) (Report, error) {
	var rep Report

	sess, err := c.connect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		return rep, fmt.Errorf("%w at %s: %w", ErrConnect, c.cfg.Address, err)
	}
	defer func() {
		if sess != nil {
			sess.Close()
		}
		c.log.Info().
			Int("sent", rep.Sent).
			Int("skipped", rep.Skipped).
			Int("dropped", rep.Dropped).
			Int("reconnects", rep.Reconnects).
			Msgf("total lines sent: %d", rep.Sent)
	}()

	var limiter *rate.Limiter
	if c.cfg.SendDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(c.cfg.SendDelay), 1)
	}

	for {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			return rep, nil
		}
		if err != nil {
			var re *source.RowError
			if !errors.As(err, &re) {
				return rep, fmt.Errorf("delivery: read source: %w", err)
			}
			rep.Skipped++
			metrics.RecordsSkipped.Inc()
			c.log.Warn().Err(err).Int("line", re.Num).Msg("skipping unreadable row")
			continue
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return rep, err
			}
		}

		if !sess.Alive() {
			c.log.Warn().Msg("collector closed the connection, reconnecting")
			if sess, err = c.reconnect(ctx, sess, &rep); err != nil {
				return rep, err
			}
		}

		if err := sess.Send(row.Line()); err != nil {
			rep.Dropped++
			metrics.RecordsDropped.Inc()
			c.log.Warn().Err(err).Int("line", row.Num).Msg("send failed, line dropped, reconnecting")
			if sess, err = c.reconnect(ctx, sess, &rep); err != nil {
				return rep, err
			}
			continue
		}

		rep.Sent++
		metrics.LinesSent.Inc()
		if c.cfg.ProgressEvery > 0 && rep.Sent%c.cfg.ProgressEvery == 0 {
			c.log.Info().Int("sent", rep.Sent).Msgf("sent %d lines", rep.Sent)
		}
	}
}

// reconnect closes old and dials a replacement. On failure the returned
// session is nil.
func (c *Client) reconnect(ctx context.Context, old *Session, rep *Report) (*Session, error) {
	c.log.Info().
		Int("consecutive_failures", old.Failures()).
		Int("reconnects", rep.Reconnects).
		Msg("reconnecting to collector")
	old.Close()
	sess, err := c.connect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w at %s: %w", ErrReconnect, c.cfg.Address, err)
	}
	rep.Reconnects++
	metrics.Reconnects.Inc()
	return sess, nil
}

func (c *Client) connect(ctx context.Context) (*Session, error) {
	var conn net.Conn
	err := c.cfg.Retry.Do(ctx, func(attempt int) error {
		c.log.Info().Str("address", c.cfg.Address).
			Msgf("connecting to collector (attempt %d/%d)", attempt, c.attempts())

		dctx := ctx
		if c.cfg.ConnectTimeout > 0 {
			var cancel context.CancelFunc
			dctx, cancel = context.WithTimeout(ctx, c.cfg.ConnectTimeout)
			defer cancel()
		}
		cn, err := c.dialer.DialContext(dctx, "tcp", c.cfg.Address)
		metrics.RecordConnectAttempt(err)
		if err != nil {
			return err
		}
		conn = cn
		return nil
	},
		retry.WithSleep(c.sleep),
		retry.OnFailure(func(attempt, limit int, err error) {
			ev := c.log.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", limit)
			if attempt < limit {
				ev = ev.Dur("retry_in", c.cfg.Retry.Delay)
			}
			ev.Msg("connection attempt failed")
		}),
	)
	if err != nil {
		return nil, err
	}
	c.log.Info().Str("address", c.cfg.Address).Msg("connected to collector")
	return newSession(conn, c.cfg.WriteTimeout, c.cfg.ProbeTimeout), nil
}

func (c *Client) attempts() int {
	if c.cfg.Retry.MaxAttempts < 1 {
		return 1
	}
	return c.cfg.Retry.MaxAttempts
}
