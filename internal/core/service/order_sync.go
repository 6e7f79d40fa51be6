package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/storefront-labs/storefront-client/internal/core/domain"
	"github.com/storefront-labs/storefront-client/internal/core/ports"
	"github.com/storefront-labs/storefront-client/internal/telemetry"
)

// identityReader is the narrow view of the session manager the engine needs:
// it reads the identity, it never writes it.
type identityReader interface {
	Session() domain.Session
}

// OrderSync maintains the authoritative in-memory list of the current user's
// orders. It reconciles two independent inputs with no ordering guarantee
// between them: a REST list fetch that replaces the list wholesale, and a
// push stream whose events patch a single order's status. The merge is
// last-write-wins on the field each input touches; server consistency across
// the two is assumed, not enforced here.
type OrderSync struct {
	gateway ports.Gateway
	dialer  ports.StreamDialer
	session identityReader
	log     zerolog.Logger

	mu      sync.Mutex
	orders  []domain.Order
	loading bool
	lastErr error
	active  bool
	gen     int
	conn    ports.StreamConn
	subs    map[int]func()
	nextSub int
}

func NewOrderSync(gateway ports.Gateway, dialer ports.StreamDialer, session identityReader, log zerolog.Logger) *OrderSync {
	return &OrderSync{
		gateway: gateway,
		dialer:  dialer,
		session: session,
		log:     log,
		subs:    make(map[int]func()),
	}
}

// Activate arms the engine: it spawns the initial list fetch and, when an
// authenticated user is known, opens exactly one stream connection for that
// user. Calling Activate on an active engine is a no-op.
func (e *OrderSync) Activate(ctx context.Context) {
	e.mu.Lock()
	if e.active {
		e.mu.Unlock()
		return
	}
	e.active = true
	e.gen++
	gen := e.gen
	e.loading = true
	e.mu.Unlock()

	go e.fetch(ctx, gen)
	go e.connect(ctx, gen)
}

// Deactivate tears the engine down: the stream is closed exactly once and
// any in-flight fetch or event is barred from committing. Idempotent.
func (e *OrderSync) Deactivate() {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}
	e.active = false
	e.gen++
	conn := e.conn
	e.conn = nil
	e.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	e.log.Debug().Msg("order sync deactivated")
}

// Refresh re-runs the guarded list fetch synchronously. No-op when inactive.
func (e *OrderSync) Refresh(ctx context.Context) {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return
	}
	gen := e.gen
	e.loading = true
	e.mu.Unlock()

	e.fetch(ctx, gen)
}

// Orders returns a copy of the list in server order (most recent first).
func (e *OrderSync) Orders() []domain.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Order, len(e.orders))
	copy(out, e.orders)
	return out
}

// Loading reports whether the initial or a refreshed list fetch is pending.
func (e *OrderSync) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// Err returns the most recent fetch error, or nil. A failed fetch leaves the
// prior list untouched; this is the retrievable error state beside it.
func (e *OrderSync) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// OnChange registers fn to run after every committed change to the list.
// The returned function unsubscribes.
func (e *OrderSync) OnChange(fn func()) func() {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// OrderDetail fetches a single order with its item snapshots. Results are not
// cached; the detail view always reflects the server.
func (e *OrderSync) OrderDetail(ctx context.Context, slug string) (*domain.Order, error) {
	sess := e.session.Session()
	if !sess.Authenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	order, err := e.gateway.GetOrder(ctx, sess.AccessToken, sess.User.ID, slug)
	if err != nil {
		return nil, fmt.Errorf("order detail: %w", err)
	}
	return order, nil
}

// ApplyEvent merges one status delta into the list and reports whether it was
// applied. Events for unknown orders are dropped, never synthesized into new
// entries; events arriving after teardown are dropped too.
func (e *OrderSync) ApplyEvent(ev domain.OrderEvent) bool {
	e.mu.Lock()
	gen := e.gen
	e.mu.Unlock()
	return e.apply(ev, gen)
}

func (e *OrderSync) apply(ev domain.OrderEvent, gen int) bool {
	if ev.OrderID <= 0 || !ev.Status.Valid() {
		telemetry.StreamEventsDroppedTotal.WithLabelValues("malformed").Inc()
		e.log.Warn().Int("order_id", ev.OrderID).Str("status", string(ev.Status)).Msg("malformed event dropped")
		return false
	}

	e.mu.Lock()
	if !e.active || gen != e.gen {
		e.mu.Unlock()
		telemetry.StreamEventsDroppedTotal.WithLabelValues("inactive").Inc()
		return false
	}
	for i := range e.orders {
		if e.orders[i].ID != ev.OrderID {
			continue
		}
		e.orders[i].Status = ev.Status
		e.mu.Unlock()
		telemetry.StreamEventsAppliedTotal.Inc()
		e.log.Debug().Int("order_id", ev.OrderID).Str("status", string(ev.Status)).Msg("order status updated")
		e.notify()
		return true
	}
	e.mu.Unlock()
	telemetry.StreamEventsDroppedTotal.WithLabelValues("unknown_order").Inc()
	e.log.Debug().Int("order_id", ev.OrderID).Msg("event for unknown order dropped")
	return false
}

// fetch runs one list fetch and commits the result only if the engine is
// still active and no teardown or re-activation happened in between.
func (e *OrderSync) fetch(ctx context.Context, gen int) {
	sess := e.session.Session()
	list, err := e.gateway.ListOrders(ctx, sess.AccessToken)

	e.mu.Lock()
	if !e.active || gen != e.gen {
		e.mu.Unlock()
		telemetry.OrderFetchesTotal.WithLabelValues("stale").Inc()
		return
	}
	e.loading = false
	if err != nil {
		e.lastErr = err
		e.mu.Unlock()
		telemetry.OrderFetchesTotal.WithLabelValues("error").Inc()
		e.log.Warn().Err(err).Msg("order list fetch failed")
		e.notify()
		return
	}
	e.orders = list
	e.lastErr = nil
	e.mu.Unlock()
	telemetry.OrderFetchesTotal.WithLabelValues("success").Inc()
	e.log.Debug().Int("count", len(list)).Msg("order list replaced")
	e.notify()
}

// connect opens the stream and pumps events into the merge until the
// connection closes. Stream failures never corrupt the list: the worst case
// is an order list without live updates.
func (e *OrderSync) connect(ctx context.Context, gen int) {
	sess := e.session.Session()
	if !sess.Authenticated() {
		e.log.Debug().Msg("no authenticated user, stream not opened")
		return
	}

	conn, err := e.dialer.Dial(ctx, sess.User.ID)
	if err != nil {
		e.log.Warn().Err(err).Msg("order stream unavailable")
		return
	}

	e.mu.Lock()
	if !e.active || gen != e.gen {
		e.mu.Unlock()
		_ = conn.Close()
		return
	}
	e.conn = conn
	e.mu.Unlock()
	e.log.Debug().Int("user_id", sess.User.ID).Msg("order stream connected")

	for {
		ev, err := conn.Next()
		if err != nil {
			e.log.Debug().Err(err).Msg("order stream closed")
			return
		}
		e.apply(ev, gen)
	}
}

func (e *OrderSync) notify() {
	e.mu.Lock()
	subs := make([]func(), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}
