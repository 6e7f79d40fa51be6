package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront-labs/storefront-client/internal/core/domain"
	"github.com/storefront-labs/storefront-client/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type fakeIdentity struct {
	sess domain.Session
}

func (f *fakeIdentity) Session() domain.Session { return f.sess }

func authedIdentity(userID int) *fakeIdentity {
	return &fakeIdentity{sess: domain.Session{
		AccessToken: "tok",
		User:        &domain.UserProfile{ID: userID},
		Status:      domain.SessionAuthenticated,
	}}
}

type fakeConn struct {
	events chan domain.OrderEvent
	done   chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		events: make(chan domain.OrderEvent, 8),
		done:   make(chan struct{}),
	}
}

func (c *fakeConn) Next() (domain.OrderEvent, error) {
	select {
	case ev := <-c.events:
		return ev, nil
	case <-c.done:
		return domain.OrderEvent{}, errors.New("connection closed")
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

type fakeDialer struct {
	mu      sync.Mutex
	conn    *fakeConn
	dialErr error
	dials   int
	userIDs []int
}

func (d *fakeDialer) Dial(_ context.Context, userID int) (ports.StreamConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	d.userIDs = append(d.userIDs, userID)
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	return d.conn, nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func twoOrders() []domain.Order {
	return []domain.Order{
		{ID: 1, Slug: "order-1", Status: domain.StatusPending},
		{ID: 2, Slug: "order-2", Status: domain.StatusShipped},
	}
}

func newEngine(gw *stubGateway, dialer *fakeDialer, id *fakeIdentity) *OrderSync {
	return NewOrderSync(gw, dialer, id, zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Fetch + merge
// ---------------------------------------------------------------------------

func TestOrderSync_FetchThenStreamEvent(t *testing.T) {
	gw := &stubGateway{orders: twoOrders()}
	dialer := &fakeDialer{conn: newFakeConn()}
	eng := newEngine(gw, dialer, authedIdentity(7))

	eng.Activate(context.Background())
	defer eng.Deactivate()

	waitFor(t, "initial fetch", func() bool { return !eng.Loading() })
	if got := eng.Orders(); len(got) != 2 || got[0].Status != domain.StatusPending {
		t.Fatalf("unexpected initial list: %v", got)
	}

	dialer.conn.events <- domain.OrderEvent{OrderID: 1, Status: domain.StatusCompleted}

	waitFor(t, "event merge", func() bool {
		return eng.Orders()[0].Status == domain.StatusCompleted
	})
	got := eng.Orders()
	if got[1].Status != domain.StatusShipped {
		t.Errorf("event must only touch its own order, got %v", got)
	}
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("server ordering must be preserved, got %v", got)
	}
}

func TestOrderSync_UnknownOrderEvent_Dropped(t *testing.T) {
	gw := &stubGateway{orders: twoOrders()}
	eng := newEngine(gw, &fakeDialer{conn: newFakeConn()}, authedIdentity(7))

	eng.Activate(context.Background())
	defer eng.Deactivate()
	waitFor(t, "initial fetch", func() bool { return !eng.Loading() })

	if eng.ApplyEvent(domain.OrderEvent{OrderID: 99, Status: domain.StatusCompleted}) {
		t.Error("expected event for unknown order to be dropped")
	}
	if got := eng.Orders(); got[0].Status != domain.StatusPending || got[1].Status != domain.StatusShipped {
		t.Errorf("list must be unchanged, got %v", got)
	}
}

func TestOrderSync_MalformedEvent_Dropped(t *testing.T) {
	gw := &stubGateway{orders: twoOrders()}
	eng := newEngine(gw, &fakeDialer{conn: newFakeConn()}, authedIdentity(7))

	eng.Activate(context.Background())
	defer eng.Deactivate()
	waitFor(t, "initial fetch", func() bool { return !eng.Loading() })

	if eng.ApplyEvent(domain.OrderEvent{OrderID: 1, Status: "Vanished"}) {
		t.Error("expected unknown status to be dropped")
	}
	if eng.ApplyEvent(domain.OrderEvent{OrderID: 0, Status: domain.StatusShipped}) {
		t.Error("expected non-positive order id to be dropped")
	}
}

func TestOrderSync_FetchError_LeavesPriorList(t *testing.T) {
	gw := &stubGateway{orders: twoOrders()}
	eng := newEngine(gw, &fakeDialer{conn: newFakeConn()}, authedIdentity(7))

	eng.Activate(context.Background())
	defer eng.Deactivate()
	waitFor(t, "initial fetch", func() bool { return !eng.Loading() })

	gw.mu.Lock()
	gw.listErr = errors.New("gateway unreachable")
	gw.mu.Unlock()

	eng.Refresh(context.Background())

	if got := eng.Orders(); len(got) != 2 {
		t.Errorf("failed refetch must leave the prior list, got %v", got)
	}
	if eng.Err() == nil {
		t.Error("expected a retrievable error state")
	}
}

// ---------------------------------------------------------------------------
// Teardown discipline
// ---------------------------------------------------------------------------

func TestOrderSync_EventAfterTeardown_NoObservableChange(t *testing.T) {
	gw := &stubGateway{orders: twoOrders()}
	eng := newEngine(gw, &fakeDialer{conn: newFakeConn()}, authedIdentity(7))

	eng.Activate(context.Background())
	waitFor(t, "initial fetch", func() bool { return !eng.Loading() })
	eng.Deactivate()

	if eng.ApplyEvent(domain.OrderEvent{OrderID: 1, Status: domain.StatusCompleted}) {
		t.Error("expected event after teardown to be dropped")
	}
	if got := eng.Orders(); got[0].Status != domain.StatusPending {
		t.Errorf("list must be unchanged after teardown, got %v", got)
	}
}

func TestOrderSync_Deactivate_ClosesStreamOnce(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conn: conn}
	gw := &stubGateway{orders: twoOrders()}
	eng := newEngine(gw, dialer, authedIdentity(7))

	eng.Activate(context.Background())
	waitFor(t, "stream dial", func() bool {
		dialer.mu.Lock()
		defer dialer.mu.Unlock()
		return dialer.dials == 1
	})
	if dialer.userIDs[0] != 7 {
		t.Errorf("stream must be scoped to the user, got %v", dialer.userIDs)
	}

	eng.Deactivate()
	eng.Deactivate() // idempotent

	waitFor(t, "connection close", func() bool { return conn.isClosed() })
}

func TestOrderSync_LateFetchAfterDeactivate_NotCommitted(t *testing.T) {
	gate := make(chan struct{})
	gw := &stubGateway{orders: twoOrders(), listGate: gate}
	eng := newEngine(gw, &fakeDialer{conn: newFakeConn()}, authedIdentity(7))

	eng.Activate(context.Background())
	waitFor(t, "fetch start", func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return gw.listCalls == 1
	})

	eng.Deactivate()
	close(gate) // fetch completes after the screen went away

	time.Sleep(20 * time.Millisecond)
	if got := eng.Orders(); len(got) != 0 {
		t.Errorf("late fetch must not commit, got %v", got)
	}
}

func TestOrderSync_Reactivate_FetchesAgain(t *testing.T) {
	gw := &stubGateway{orders: twoOrders()}
	eng := newEngine(gw, &fakeDialer{conn: newFakeConn()}, authedIdentity(7))

	eng.Activate(context.Background())
	waitFor(t, "first fetch", func() bool { return !eng.Loading() })
	eng.Deactivate()

	eng.Activate(context.Background())
	defer eng.Deactivate()
	waitFor(t, "second fetch", func() bool { return !eng.Loading() && len(eng.Orders()) == 2 })
}

func TestOrderSync_AnonymousUser_NoStreamDial(t *testing.T) {
	dialer := &fakeDialer{conn: newFakeConn()}
	gw := &stubGateway{}
	eng := newEngine(gw, dialer, &fakeIdentity{sess: domain.Session{Status: domain.SessionAnonymous}})

	eng.Activate(context.Background())
	defer eng.Deactivate()
	waitFor(t, "fetch settle", func() bool { return !eng.Loading() })

	dialer.mu.Lock()
	defer dialer.mu.Unlock()
	if dialer.dials != 0 {
		t.Errorf("anonymous session must not open a stream, got %d dials", dialer.dials)
	}
}

func TestOrderSync_StreamUnavailable_ListStillUsable(t *testing.T) {
	dialer := &fakeDialer{dialErr: errors.New("no route to host")}
	gw := &stubGateway{orders: twoOrders()}
	eng := newEngine(gw, dialer, authedIdentity(7))

	eng.Activate(context.Background())
	defer eng.Deactivate()

	waitFor(t, "fetch despite stream failure", func() bool { return len(eng.Orders()) == 2 })
	if eng.Err() != nil {
		t.Errorf("stream failure must not surface as a fetch error, got %v", eng.Err())
	}
}

// ---------------------------------------------------------------------------
// Detail fetch
// ---------------------------------------------------------------------------

func TestOrderSync_OrderDetail(t *testing.T) {
	want := &domain.Order{ID: 1, Slug: "order-1", Items: []domain.OrderLineSnapshot{
		{ProductID: 7, Title: "widget", UnitPrice: 10, Quantity: 2},
	}}
	gw := &stubGateway{orderRes: want}
	eng := newEngine(gw, &fakeDialer{conn: newFakeConn()}, authedIdentity(7))

	got, err := eng.OrderDetail(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Slug != "order-1" || len(got.Items) != 1 {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestOrderSync_OrderDetail_RequiresAuthentication(t *testing.T) {
	gw := &stubGateway{}
	eng := newEngine(gw, &fakeDialer{conn: newFakeConn()}, &fakeIdentity{sess: domain.Session{Status: domain.SessionAnonymous}})

	_, err := eng.OrderDetail(context.Background(), "order-1")
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestOrderSync_OrderDetail_NotFound(t *testing.T) {
	gw := &stubGateway{orderErr: domain.ErrOrderNotFound}
	eng := newEngine(gw, &fakeDialer{conn: newFakeConn()}, authedIdentity(7))

	_, err := eng.OrderDetail(context.Background(), "missing")
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}
