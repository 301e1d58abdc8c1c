package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/i18n"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCarts struct {
	mu      sync.Mutex
	lines   []cart.Line
	cleared int
}

func (f *fakeCarts) Snapshot(context.Context, string) (cart.View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return viewOf(f.lines), nil
}

func (f *fakeCarts) Clear(context.Context, string) (cart.View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = nil
	f.cleared++
	return viewOf(nil), nil
}

func viewOf(lines []cart.Line) cart.View {
	view := cart.View{Lines: append([]cart.Line(nil), lines...), TotalAmount: decimal.Zero}
	for _, line := range lines {
		view.TotalItemCount += line.Quantity
		view.TotalAmount = view.TotalAmount.Add(line.Subtotal())
	}
	return view
}

type fakePlacer struct {
	calls []orders.PlaceOrderInput
	errs  []error
}

func (f *fakePlacer) PlaceOrder(_ context.Context, input orders.PlaceOrderInput) (*orders.OrderDTO, error) {
	f.calls = append(f.calls, input)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	total := decimal.Zero
	for _, line := range input.Lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return &orders.OrderDTO{
		ID:          uuid.New(),
		PhoneNumber: input.PhoneNumber,
		TotalAmount: total,
		Status:      enums.OrderStatusPending,
		CreatedAt:   time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
	}, nil
}

type fakeNotifier struct {
	got []notifications.OrderPlaced
	err error
}

func (f *fakeNotifier) NotifyOrderPlaced(_ context.Context, order notifications.OrderPlaced) error {
	f.got = append(f.got, order)
	return f.err
}

type fakeTimer struct{ stopped bool }

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	delays []time.Duration
	fires  []func()
	timers []*fakeTimer
}

func (s *fakeScheduler) afterFunc(d time.Duration, f func()) Timer {
	timer := &fakeTimer{}
	s.delays = append(s.delays, d)
	s.fires = append(s.fires, f)
	s.timers = append(s.timers, timer)
	return timer
}

type harness struct {
	svc      *Service
	carts    *fakeCarts
	placer   *fakePlacer
	notifier *fakeNotifier
	sched    *fakeScheduler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		carts: &fakeCarts{lines: []cart.Line{
			{ProductID: uuid.New(), Name: "Tea", UnitPrice: decimal.RequireFromString("3.50"), Quantity: 2},
			{ProductID: uuid.New(), Name: "Chips", UnitPrice: decimal.RequireFromString("1.25"), Quantity: 1},
		}},
		placer:   &fakePlacer{},
		notifier: &fakeNotifier{},
		sched:    &fakeScheduler{},
	}
	svc, err := NewService(h.carts, h.placer, h.notifier, Config{ClearDelay: 2 * time.Second}, nil, nil, WithAfterFunc(h.sched.afterFunc))
	require.NoError(t, err)
	h.svc = svc
	return h
}

func TestNewSessionStartsReviewing(t *testing.T) {
	h := newHarness(t)
	view, err := h.svc.Current(context.Background(), "sess")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateReviewing, view.State)
	assert.Equal(t, 3, view.ItemCount)
	assert.Equal(t, "8.25", view.TotalAmount.StringFixed(2))

	_, err = h.svc.Current(context.Background(), " ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestBeginRequiresItems(t *testing.T) {
	h := newHarness(t)
	h.carts.lines = nil

	view, err := h.svc.Begin(context.Background(), "sess")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, enums.CheckoutStateReviewing, view.State)
	assert.Equal(t, i18n.KeyCheckoutEmptyCart, view.ErrorKey)
}

func TestBlankPhoneDoesNotPlaceOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Begin(ctx, "sess")
	require.NoError(t, err)

	view, err := h.svc.Submit(ctx, "sess", "   ")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, enums.CheckoutStateAwaitingContact, view.State)
	assert.Equal(t, MessagePhoneRequired, view.Error)
	assert.Equal(t, i18n.KeyCheckoutPhoneRequired, view.ErrorKey)
	assert.Empty(t, h.placer.calls)
}

func TestSubmitFromReviewingIsRejected(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Submit(context.Background(), "sess", "+1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, h.placer.calls)
}

func TestSuccessWithNotificationFailureClearsCartAfterDelay(t *testing.T) {
	h := newHarness(t)
	h.notifier.err = errors.New("telegram down")
	ctx := context.Background()

	_, err := h.svc.Begin(ctx, "sess")
	require.NoError(t, err)
	view, err := h.svc.Submit(ctx, "sess", " +998901234567 ")
	require.NoError(t, err)

	assert.Equal(t, enums.CheckoutStateSucceeded, view.State)
	require.NotNil(t, view.Order)
	assert.Equal(t, "8.25", view.Order.TotalAmount.StringFixed(2))
	require.Len(t, h.placer.calls, 1)
	assert.Equal(t, "+998901234567", h.placer.calls[0].PhoneNumber)

	require.Len(t, h.notifier.got, 1)
	require.Len(t, h.notifier.got[0].Items, 2)
	assert.Equal(t, "Tea", h.notifier.got[0].Items[0].Name)
	assert.Equal(t, 2, h.notifier.got[0].Items[0].Quantity)

	// not cleared until the timer fires
	assert.Zero(t, h.carts.cleared)
	require.Len(t, h.sched.fires, 1)
	assert.Equal(t, 2*time.Second, h.sched.delays[0])

	h.sched.fires[0]()
	assert.Equal(t, 1, h.carts.cleared)

	view, err = h.svc.Current(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateSucceeded, view.State)
	assert.Equal(t, 3, view.ItemCount)

	_, err = h.svc.Submit(ctx, "sess", "+1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestFailureKeepsPhoneAndAllowsResubmit(t *testing.T) {
	h := newHarness(t)
	h.placer.errs = []error{pkgerrors.New(pkgerrors.CodeDependency, "failed to place order")}
	ctx := context.Background()

	_, err := h.svc.Begin(ctx, "sess")
	require.NoError(t, err)
	view, err := h.svc.Submit(ctx, "sess", "+998901234567")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Equal(t, enums.CheckoutStateFailed, view.State)
	assert.Equal(t, "+998901234567", view.PhoneNumber)
	assert.Equal(t, MessageOrderFailed, view.Error)
	assert.Zero(t, h.carts.cleared)
	assert.Empty(t, h.sched.fires)
	assert.Empty(t, h.notifier.got)

	view, err = h.svc.Submit(ctx, "sess", "")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateSucceeded, view.State)
	require.Len(t, h.placer.calls, 2)
	assert.Equal(t, "+998901234567", h.placer.calls[1].PhoneNumber)
}

func TestRetryAndBackKeepPhone(t *testing.T) {
	h := newHarness(t)
	h.placer.errs = []error{errors.New("boom")}
	ctx := context.Background()

	_, err := h.svc.Begin(ctx, "sess")
	require.NoError(t, err)
	_, err = h.svc.Submit(ctx, "sess", "+1")
	require.Error(t, err)

	view, err := h.svc.Retry(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateAwaitingContact, view.State)
	assert.Equal(t, "+1", view.PhoneNumber)
	assert.Equal(t, MessageOrderFailed, view.Error)

	view, err = h.svc.Back(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateReviewing, view.State)
	assert.Equal(t, "+1", view.PhoneNumber)
	assert.Empty(t, view.Error)

	_, err = h.svc.Retry(ctx, "sess")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	_, err = h.svc.Back(ctx, "sess")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestBeginAfterSuccessFlushesPendingClear(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Begin(ctx, "sess")
	require.NoError(t, err)
	_, err = h.svc.Submit(ctx, "sess", "+1")
	require.NoError(t, err)

	view, err := h.svc.Begin(ctx, "sess")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, enums.CheckoutStateReviewing, view.State)
	assert.Nil(t, view.Order)
	assert.Equal(t, 1, h.carts.cleared)
	assert.True(t, h.sched.timers[0].stopped)

	// the stale timer must not clear a second time
	h.sched.fires[0]()
	assert.Equal(t, 1, h.carts.cleared)
}

func TestSessionsAreIndependent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Begin(ctx, "a")
	require.NoError(t, err)

	view, err := h.svc.Current(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateReviewing, view.State)
}

type blockingNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingNotifier) NotifyOrderPlaced(ctx context.Context, _ notifications.OrderPlaced) error {
	close(b.entered)
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return nil
}

func TestReadOnlyActionsDoNotRegisterFlows(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		sessionID := uuid.NewString()
		view, err := h.svc.Current(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, enums.CheckoutStateReviewing, view.State)

		_, err = h.svc.Back(ctx, sessionID)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
		_, err = h.svc.Retry(ctx, sessionID)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	}
	assert.Zero(t, h.svc.Resident())
}

func TestIdleFlowsAreForgottenUnlessBusy(t *testing.T) {
	carts := &fakeCarts{lines: []cart.Line{
		{ProductID: uuid.New(), Name: "Tea", UnitPrice: decimal.RequireFromString("3.50"), Quantity: 1},
	}}
	sched := &fakeScheduler{}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewService(carts, &fakePlacer{}, &fakeNotifier{}, Config{}, nil, nil,
		WithAfterFunc(sched.afterFunc),
		WithIdleTimeout(10*time.Minute),
		WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Begin(ctx, "idle")
	require.NoError(t, err)
	_, err = svc.Begin(ctx, "pending-clear")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "pending-clear", "+998901234567")
	require.NoError(t, err)
	require.Len(t, sched.fires, 1)

	now = now.Add(time.Hour)
	_, err = svc.Begin(ctx, "newcomer")
	require.NoError(t, err)
	assert.Equal(t, 2, svc.Resident())

	view, err := svc.Current(ctx, "idle")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateReviewing, view.State)

	view, err = svc.Current(ctx, "pending-clear")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStateSucceeded, view.State)
}

func TestSlowNotificationDoesNotBlockReads(t *testing.T) {
	carts := &fakeCarts{lines: []cart.Line{
		{ProductID: uuid.New(), Name: "Tea", UnitPrice: decimal.RequireFromString("3.50"), Quantity: 1},
	}}
	notifier := &blockingNotifier{entered: make(chan struct{}), release: make(chan struct{})}
	sched := &fakeScheduler{}
	svc, err := NewService(carts, &fakePlacer{}, notifier, Config{NotificationTimeout: time.Minute}, nil, nil,
		WithAfterFunc(sched.afterFunc))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Begin(ctx, "sess")
	require.NoError(t, err)

	done := make(chan View, 1)
	go func() {
		view, _ := svc.Submit(ctx, "sess", "+998901234567")
		done <- view
	}()
	<-notifier.entered

	read := make(chan View, 1)
	go func() {
		view, _ := svc.Current(ctx, "sess")
		read <- view
	}()
	select {
	case view := <-read:
		assert.Equal(t, enums.CheckoutStateSubmitting, view.State)
	case <-time.After(2 * time.Second):
		t.Fatal("reading the flow blocked on the notification")
	}

	close(notifier.release)
	view := <-done
	assert.Equal(t, enums.CheckoutStateSucceeded, view.State)
}
