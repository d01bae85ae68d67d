package neohub

import (
	"context"
	"errors"
	"net"
	"time"

	"neohub_controller/internal/logger"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"
	"github.com/sony/gobreaker"
)

// Dialer yields a brand-new hub session per call.
type Dialer interface {
	Connect(ctx context.Context) (*websocket.Conn, error)
}

// Options tunes timeouts, retries and the circuit breaker of a Client.
type Options struct {
	Timeout         time.Duration // per attempt: connect + send + receive
	Retries         int           // extra attempts after the first
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	BreakerFailures uint32        // consecutive failures before the breaker opens
	BreakerCooldown time.Duration // how long the breaker stays open
}

// Defaults applied to zero Options fields.
const (
	defaultTimeout         = 10 * time.Second
	defaultInitialBackoff  = 500 * time.Millisecond
	defaultMaxBackoff      = 5 * time.Second
	defaultBreakerFailures = 5
	defaultBreakerCooldown = 30 * time.Second
)

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = defaultInitialBackoff
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = defaultMaxBackoff
	}
	if o.BreakerFailures == 0 {
		o.BreakerFailures = defaultBreakerFailures
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = defaultBreakerCooldown
	}
	return o
}

// Client sends one command per call and returns the hub's first reply frame
// untouched. It keeps no protocol state between calls.
type Client struct {
	dialer  Dialer
	token   string
	opts    Options
	breaker *gobreaker.CircuitBreaker
	log     *logger.Logger
}

// NewClient builds a Client. log may be nil.
func NewClient(dialer Dialer, token string, opts Options, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	opts = opts.withDefaults()
	failures := opts.BreakerFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "neohub",
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("hub_breaker_state", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Client{dialer: dialer, token: token, opts: opts, breaker: cb, log: log}
}

// Run sends {name: value} to the hub and returns the raw reply.
// Connection and protocol failures are retried with exponential backoff
// up to Options.Retries times; the last typed error is returned.
func (c *Client) Run(ctx context.Context, name, value string) (string, error) {
	payload, err := BuildEnvelope(c.token, name, value)
	if err != nil {
		return "", err
	}

	var reply string
	attempt := 0
	op := func() error {
		attempt++
		out, err := c.breaker.Execute(func() (interface{}, error) {
			return c.exchange(ctx, payload)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(&ConnectionError{Stage: StageBreaker, Err: ErrCircuitOpen})
			}
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		reply = out.(string)
		return nil
	}

	policy := backoff.WithContext(retryPolicy(c.opts), ctx)

	notify := func(err error, wait time.Duration) {
		c.log.Warnw("hub_command_retry", "cmd", name, "attempt", attempt, "wait", wait, "err", err)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		c.log.Errorw("hub_command_failed", "cmd", name, "attempts", attempt, "err", err)
		return "", err
	}
	c.log.Debugw("hub_command_ok", "cmd", name, "attempts", attempt)
	return reply, nil
}

// retryPolicy allows exactly opts.Retries extra attempts. WithMaxRetries
// treats 0 as unlimited, so no retries means StopBackOff.
func retryPolicy(opts Options) backoff.BackOff {
	if opts.Retries <= 0 {
		return &backoff.StopBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.InitialBackoff
	b.MaxInterval = opts.MaxBackoff
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, uint64(opts.Retries))
}

// exchange is one full connection lifecycle: connect, send, receive, close.
func (c *Client) exchange(ctx context.Context, payload []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	conn, err := c.dialer.Connect(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Close() }()

	// Unblock a pending read if the caller gives up before the deadline.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	deadline, _ := ctx.Deadline()
	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return "", &ProtocolError{Op: "send", Err: err}
	}

	_ = conn.SetReadDeadline(deadline)
	_, msg, err := conn.ReadMessage()
	if err != nil {
		var ne net.Error
		if (errors.As(err, &ne) && ne.Timeout()) || ctx.Err() != nil {
			err = errors.Join(ErrNoResponse, err)
		}
		return "", &ProtocolError{Op: "receive", Err: err}
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return string(msg), nil
}
