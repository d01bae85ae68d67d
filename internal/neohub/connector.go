package neohub

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultDialTimeout = 10 * time.Second
	defaultPortSecure  = "443"
	defaultPortPlain   = "80"
)

// Connector opens one fresh WebSocket session to the hub per call.
//
// The hub sits on the local network and presents a self-signed certificate, so
// certificate and hostname verification are both disabled. Do not point a
// Connector at anything outside the LAN.
type Connector struct {
	target    *url.URL
	addr      string
	secure    bool
	dialer    net.Dialer
	tlsConfig *tls.Config
}

// NewConnector validates the hub URL (ws://, wss://, http:// or https://).
func NewConnector(rawURL string) (*Connector, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &ConnectionError{Stage: StageURL, Addr: rawURL, Err: err}
	}

	var secure bool
	switch u.Scheme {
	case "wss", "https":
		secure = true
		u.Scheme = "wss"
	case "ws", "http":
		u.Scheme = "ws"
	default:
		return nil, &ConnectionError{Stage: StageURL, Addr: rawURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if u.Hostname() == "" {
		return nil, &ConnectionError{Stage: StageURL, Addr: rawURL, Err: fmt.Errorf("missing host")}
	}

	port := u.Port()
	if port == "" {
		port = defaultPortPlain
		if secure {
			port = defaultPortSecure
		}
	}

	return &Connector{
		target: u,
		addr:   net.JoinHostPort(u.Hostname(), port),
		secure: secure,
		dialer: net.Dialer{Timeout: defaultDialTimeout},
		tlsConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // private-network hub with a self-signed cert
			ServerName:         u.Hostname(),
			MinVersion:         tls.VersionTLS12,
		},
	}, nil
}

// Addr returns host:port of the hub.
func (c *Connector) Addr() string { return c.addr }

// Connect runs TCP connect, TLS handshake and WebSocket upgrade in that order.
// The caller owns the returned connection and must close it.
func (c *Connector) Connect(ctx context.Context) (*websocket.Conn, error) {
	raw, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, &ConnectionError{Stage: StageDial, Addr: c.addr, Err: err}
	}

	stream := raw
	if c.secure {
		tlsConn := tls.Client(raw, c.tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			return nil, &ConnectionError{Stage: StageTLS, Addr: c.addr, Err: err}
		}
		stream = tlsConn
	}

	// Hand the prepared stream to gorilla so it only performs the upgrade.
	handoff := func(context.Context, string, string) (net.Conn, error) { return stream, nil }
	wsDialer := websocket.Dialer{HandshakeTimeout: defaultDialTimeout}
	if c.secure {
		wsDialer.NetDialTLSContext = handoff
	} else {
		wsDialer.NetDialContext = handoff
	}

	conn, resp, err := wsDialer.DialContext(ctx, c.target.String(), nil)
	if err != nil {
		_ = stream.Close()
		if resp != nil {
			err = fmt.Errorf("%w (status %s)", err, httpStatus(resp))
		}
		return nil, &ConnectionError{Stage: StageHandshake, Addr: c.addr, Err: err}
	}
	return conn, nil
}

func httpStatus(resp *http.Response) string {
	if resp.Body != nil {
		_ = resp.Body.Close()
	}
	return resp.Status
}
