package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/i18n"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/registry"
)

// Messages shown with the matching ErrorKey when no translation is applied.
const (
	MessagePhoneRequired = "Please enter your phone number"
	MessageOrderFailed   = "Failed to place order. Please try again."
	MessageEmptyCart     = "Your cart is empty"
)

const (
	DefaultClearDelay          = 2000 * time.Millisecond
	DefaultNotificationTimeout = 5 * time.Second
)

type cartSource interface {
	Snapshot(ctx context.Context, sessionID string) (cart.View, error)
	Clear(ctx context.Context, sessionID string) (cart.View, error)
}

type orderPlacer interface {
	PlaceOrder(ctx context.Context, input orders.PlaceOrderInput) (*orders.OrderDTO, error)
}

// Timer is the handle returned by AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules the delayed cart clear.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Config tunes the flow timings.
type Config struct {
	ClearDelay          time.Duration
	NotificationTimeout time.Duration
}

// Option customises the Service.
type Option func(*Service)

// WithIdleTimeout sets how long an untouched flow is remembered.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.idle = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.clock = now
	}
}

func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Service) {
		if fn != nil {
			s.afterFunc = fn
		}
	}
}

type flow struct {
	mu           sync.Mutex
	state        enums.CheckoutState
	phone        string
	errMessage   string
	errKey       i18n.Key
	order        *OrderSummary
	submitted    *cart.View
	pendingClear Timer
	clearGen     uint64
}

func newFlow() *flow {
	return &flow{state: enums.CheckoutStateReviewing}
}

// busy pins flows with an order in flight or a cart clear still pending.
// A flow whose lock is held is in use and also stays.
func (f *flow) busy() bool {
	if !f.mu.TryLock() {
		return true
	}
	defer f.mu.Unlock()
	return f.state == enums.CheckoutStateSubmitting || f.pendingClear != nil
}

func (f *flow) setError(message string, key i18n.Key) {
	f.errMessage = message
	f.errKey = key
}

func (f *flow) clearError() {
	f.setError("", "")
}

// Service runs one checkout flow per session:
// reviewing -> awaiting_contact -> submitting -> succeeded | failed.
type Service struct {
	carts         cartSource
	orders        orderPlacer
	notifier      notifications.Notifier
	clearDelay    time.Duration
	notifyTimeout time.Duration
	afterFunc     AfterFunc
	logg          *logger.Logger
	metrics       *metrics.StorefrontMetrics

	idle  time.Duration
	clock func() time.Time
	flows *registry.Registry[*flow]
}

// NewService wires the checkout flow registry.
func NewService(
	carts cartSource,
	placer orderPlacer,
	notifier notifications.Notifier,
	cfg Config,
	logg *logger.Logger,
	m *metrics.StorefrontMetrics,
	opts ...Option,
) (*Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart source required")
	}
	if placer == nil {
		return nil, fmt.Errorf("order placer required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if cfg.ClearDelay <= 0 {
		cfg.ClearDelay = DefaultClearDelay
	}
	if cfg.NotificationTimeout <= 0 {
		cfg.NotificationTimeout = DefaultNotificationTimeout
	}
	if logg == nil {
		logg = logger.Nop()
	}
	s := &Service{
		carts:         carts,
		orders:        placer,
		notifier:      notifier,
		clearDelay:    cfg.ClearDelay,
		notifyTimeout: cfg.NotificationTimeout,
		afterFunc:     realAfterFunc,
		logg:          logg,
		metrics:       m,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.flows = registry.New(s.idle,
		registry.WithClock[*flow](s.clock),
		registry.WithKeep((*flow).busy),
	)
	return s, nil
}

// flow returns the session's flow, registering a new one on first use.
func (s *Service) flow(sessionID string) (*flow, error) {
	sessionID, err := requireSession(sessionID)
	if err != nil {
		return nil, err
	}
	if f, ok := s.flows.Get(sessionID); ok {
		return f, nil
	}
	f, _ := s.flows.LoadOrStore(sessionID, newFlow())
	return f, nil
}

// peek returns the session's flow, or an unregistered reviewing flow for a
// session that has none. Actions that cannot leave reviewing use it.
func (s *Service) peek(sessionID string) (*flow, error) {
	sessionID, err := requireSession(sessionID)
	if err != nil {
		return nil, err
	}
	if f, ok := s.flows.Get(sessionID); ok {
		return f, nil
	}
	return newFlow(), nil
}

// Resident reports how many flows are held in memory.
func (s *Service) Resident() int {
	return s.flows.Len()
}

func requireSession(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return sessionID, nil
}

// Current returns the session's flow; new sessions start in reviewing.
func (s *Service) Current(ctx context.Context, sessionID string) (View, error) {
	f, err := s.peek(sessionID)
	if err != nil {
		return View{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return s.view(ctx, sessionID, f)
}

// Begin moves reviewing to awaiting_contact. A succeeded flow starts over,
// flushing any cart clear still pending. The cart must not be empty.
func (s *Service) Begin(ctx context.Context, sessionID string) (View, error) {
	f, err := s.flow(sessionID)
	if err != nil {
		return View{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case enums.CheckoutStateAwaitingContact:
		return s.view(ctx, sessionID, f)
	case enums.CheckoutStateSucceeded:
		s.flushClear(ctx, sessionID, f)
		f.state = enums.CheckoutStateReviewing
		f.phone = ""
		f.order = nil
		f.submitted = nil
		f.clearError()
	case enums.CheckoutStateReviewing:
	default:
		return s.conflict(ctx, sessionID, f, "begin")
	}

	snapshot, err := s.carts.Snapshot(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	if len(snapshot.Lines) == 0 {
		return s.emptyCart(ctx, sessionID, f)
	}
	f.state = enums.CheckoutStateAwaitingContact
	f.clearError()
	return s.view(ctx, sessionID, f)
}

// Back returns to reviewing from awaiting_contact or failed. The phone stays.
func (s *Service) Back(ctx context.Context, sessionID string) (View, error) {
	f, err := s.peek(sessionID)
	if err != nil {
		return View{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case enums.CheckoutStateAwaitingContact, enums.CheckoutStateFailed:
		f.state = enums.CheckoutStateReviewing
		f.clearError()
		return s.view(ctx, sessionID, f)
	default:
		return s.conflict(ctx, sessionID, f, "back")
	}
}

// Retry moves failed back to awaiting_contact, keeping the phone and error.
func (s *Service) Retry(ctx context.Context, sessionID string) (View, error) {
	f, err := s.peek(sessionID)
	if err != nil {
		return View{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != enums.CheckoutStateFailed {
		return s.conflict(ctx, sessionID, f, "retry")
	}
	f.state = enums.CheckoutStateAwaitingContact
	return s.view(ctx, sessionID, f)
}

// Submit places the order for the session's cart. A blank phone keeps the
// flow in awaiting_contact without touching orders; after a failure a blank
// phone reuses the one already entered. The cart is only cleared, after the
// configured delay, once the order exists.
func (s *Service) Submit(ctx context.Context, sessionID, phone string) (View, error) {
	f, err := s.flow(sessionID)
	if err != nil {
		return View{}, err
	}
	f.mu.Lock()

	if !f.state.AcceptsSubmit() {
		defer f.mu.Unlock()
		return s.conflict(ctx, sessionID, f, "submit")
	}

	phone = strings.TrimSpace(phone)
	if phone == "" && f.state == enums.CheckoutStateFailed {
		phone = f.phone
	}
	if phone == "" {
		defer f.mu.Unlock()
		f.state = enums.CheckoutStateAwaitingContact
		f.setError(MessagePhoneRequired, i18n.KeyCheckoutPhoneRequired)
		view, err := s.view(ctx, sessionID, f)
		if err != nil {
			return View{}, err
		}
		return view, pkgerrors.New(pkgerrors.CodeValidation, MessagePhoneRequired).WithDetails(view.details())
	}

	snapshot, err := s.carts.Snapshot(ctx, sessionID)
	if err != nil {
		f.mu.Unlock()
		return View{}, err
	}
	if len(snapshot.Lines) == 0 {
		defer f.mu.Unlock()
		return s.emptyCart(ctx, sessionID, f)
	}

	f.state = enums.CheckoutStateSubmitting
	f.phone = phone
	f.clearError()
	f.mu.Unlock()

	order, placeErr := s.orders.PlaceOrder(ctx, orders.PlaceOrderInput{
		PhoneNumber: phone,
		Lines:       orderLines(snapshot.Lines),
	})
	if placeErr == nil {
		s.metrics.IncCheckoutSubmission(metrics.OutcomeSuccess)
		s.notify(ctx, sessionID, order, snapshot.Lines)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if placeErr != nil {
		s.metrics.IncCheckoutSubmission(metrics.OutcomeFailure)
		s.logg.Error(s.logg.WithSessionID(ctx, sessionID), "failed to place order", placeErr)
		f.state = enums.CheckoutStateFailed
		f.setError(MessageOrderFailed, i18n.KeyCheckoutOrderFailed)
		view := s.viewFrom(f, snapshot)
		code := pkgerrors.CodeOf(placeErr)
		if code == pkgerrors.CodeInternal {
			code = pkgerrors.CodeDependency
		}
		return view, pkgerrors.Wrap(code, placeErr, MessageOrderFailed).WithDetails(view.details())
	}

	f.state = enums.CheckoutStateSucceeded
	f.order = &OrderSummary{ID: order.ID, TotalAmount: order.TotalAmount, CreatedAt: order.CreatedAt}
	f.submitted = &snapshot
	f.clearGen++
	gen := f.clearGen
	f.pendingClear = s.afterFunc(s.clearDelay, func() { s.clearAfterSuccess(sessionID, f, gen) })
	return s.viewFrom(f, snapshot), nil
}

func (s *Service) notify(ctx context.Context, sessionID string, order *orders.OrderDTO, lines []cart.Line) {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	items := make([]notifications.Item, 0, len(lines))
	for _, line := range lines {
		items = append(items, notifications.Item{Name: line.Name, UnitPrice: line.UnitPrice, Quantity: line.Quantity})
	}
	err := s.notifier.NotifyOrderPlaced(notifyCtx, notifications.OrderPlaced{
		OrderID:     order.ID,
		PhoneNumber: order.PhoneNumber,
		TotalAmount: order.TotalAmount,
		Items:       items,
		PlacedAt:    order.CreatedAt,
	})
	switch {
	case err == nil:
		s.metrics.IncNotification(metrics.OutcomeSuccess)
	case errors.Is(err, notifications.ErrNotConfigured):
		s.metrics.IncNotification(metrics.OutcomeSkipped)
	default:
		s.metrics.IncNotification(metrics.OutcomeFailure)
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"session_id": sessionID,
			"order_id":   order.ID.String(),
			"error":      err.Error(),
		})
		s.logg.Warn(logCtx, "order notification failed")
	}
}

func (s *Service) clearAfterSuccess(sessionID string, f *flow, gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pendingClear == nil || f.clearGen != gen {
		return
	}
	f.pendingClear = nil
	s.clearCart(context.Background(), sessionID)
}

// flushClear runs a pending clear now. Callers hold f.mu.
func (s *Service) flushClear(ctx context.Context, sessionID string, f *flow) {
	if f.pendingClear == nil {
		return
	}
	f.pendingClear.Stop()
	f.pendingClear = nil
	s.clearCart(ctx, sessionID)
}

func (s *Service) clearCart(ctx context.Context, sessionID string) {
	if _, err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logg.Error(s.logg.WithSessionID(ctx, sessionID), "failed to clear cart after checkout", err)
	}
}

func (s *Service) conflict(ctx context.Context, sessionID string, f *flow, action string) (View, error) {
	view, err := s.view(ctx, sessionID, f)
	if err != nil {
		return View{}, err
	}
	details := view.details()
	details["action"] = action
	return view, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout action not allowed in current state").WithDetails(details)
}

func (s *Service) emptyCart(ctx context.Context, sessionID string, f *flow) (View, error) {
	view, err := s.view(ctx, sessionID, f)
	if err != nil {
		return View{}, err
	}
	view.Error = MessageEmptyCart
	view.ErrorKey = i18n.KeyCheckoutEmptyCart
	return view, pkgerrors.New(pkgerrors.CodeStateConflict, MessageEmptyCart).WithDetails(view.details())
}

// view renders f against the live cart, or the submitted one once succeeded.
// Callers hold f.mu.
func (s *Service) view(ctx context.Context, sessionID string, f *flow) (View, error) {
	if f.state == enums.CheckoutStateSucceeded && f.submitted != nil {
		return s.viewFrom(f, *f.submitted), nil
	}
	snapshot, err := s.carts.Snapshot(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	return s.viewFrom(f, snapshot), nil
}

func (s *Service) viewFrom(f *flow, snapshot cart.View) View {
	view := View{
		State:       f.state,
		PhoneNumber: f.phone,
		Error:       f.errMessage,
		ErrorKey:    f.errKey,
		ItemCount:   snapshot.TotalItemCount,
		TotalAmount: snapshot.TotalAmount,
	}
	if f.order != nil {
		order := *f.order
		view.Order = &order
	}
	return view
}

func orderLines(lines []cart.Line) []orders.LineInput {
	out := make([]orders.LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, orders.LineInput{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}
	return out
}
