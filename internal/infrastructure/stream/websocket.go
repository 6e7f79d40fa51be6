// Package stream is the websocket adapter for order status updates. One
// connection is opened per authenticated user; inbound frames are JSON text
// messages carrying {order_id, status}. The adapter drops malformed frames
// itself so the sync engine only ever sees well-formed events.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/storefront-labs/storefront-client/internal/core/domain"
	"github.com/storefront-labs/storefront-client/internal/core/ports"
)

const handshakeTimeout = 10 * time.Second

// Dialer opens order streams against the host the gateway lives on, so the
// same build works across emulator, device, and LAN setups. hostOverride
// replaces the derived host when set.
type Dialer struct {
	base string // ws(s)://host[:port], no path
	log  zerolog.Logger
}

func NewDialer(apiBaseURL, hostOverride string, log zerolog.Logger) (*Dialer, error) {
	u, err := url.Parse(apiBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	host := u.Host
	if hostOverride != "" {
		host = hostOverride
	}
	if host == "" {
		return nil, fmt.Errorf("no stream host in %q", apiBaseURL)
	}
	return &Dialer{base: scheme + "://" + host, log: log}, nil
}

func (d *Dialer) Dial(ctx context.Context, userID int) (ports.StreamConn, error) {
	target := fmt.Sprintf("%s/ws/orders/%d/", d.base, userID)
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	conn, resp, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("websocket dial %s: %w", target, err)
	}
	d.log.Debug().Str("target", target).Msg("order stream dialed")
	return &streamConn{conn: conn, log: d.log}, nil
}

// eventFrame is the inbound wire format.
type eventFrame struct {
	OrderID int    `json:"order_id"`
	Status  string `json:"status"`
}

type streamConn struct {
	conn *websocket.Conn
	log  zerolog.Logger
	once sync.Once
	err  error
}

// Next reads frames until a well-formed event arrives. Frames that fail to
// decode or carry an unknown status are logged and skipped, never fatal.
func (s *streamConn) Next() (domain.OrderEvent, error) {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return domain.OrderEvent{}, err
		}

		var f eventFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			s.log.Warn().Err(err).Msg("undecodable stream frame dropped")
			continue
		}
		ev := domain.OrderEvent{OrderID: f.OrderID, Status: domain.OrderStatus(f.Status)}
		if f.OrderID <= 0 || !ev.Status.Valid() {
			s.log.Warn().Int("order_id", f.OrderID).Str("status", f.Status).Msg("invalid stream frame dropped")
			continue
		}
		return ev, nil
	}
}

// Close tears the connection down once: a best-effort close message, then the
// underlying close, which also unblocks any Next in flight.
func (s *streamConn) Close() error {
	s.once.Do(func() {
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		s.err = s.conn.Close()
	})
	return s.err
}
