package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/telegram"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotConfigured is returned when the bot token or admin chat is missing.
var ErrNotConfigured = errors.New("order notifications not configured")

// OrderPlaced is what the admin chat is told about a new order.
type OrderPlaced struct {
	OrderID     uuid.UUID
	PhoneNumber string
	TotalAmount decimal.Decimal
	Items       []Item
	PlacedAt    time.Time
}

// Item is one cart line as the customer saw it.
type Item struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Notifier announces placed orders to the admin chat.
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, order OrderPlaced) error
}

type messageSender interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) error
}

type service struct {
	sender messageSender
	chatID string
	logg   *logger.Logger
}

// NewService builds the Telegram notifier. A nil sender or blank chat id yields
// a notifier that reports ErrNotConfigured on every call.
func NewService(sender messageSender, chatID string, logg *logger.Logger) Notifier {
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{sender: sender, chatID: strings.TrimSpace(chatID), logg: logg}
}

func (s *service) NotifyOrderPlaced(ctx context.Context, order OrderPlaced) error {
	if s.sender == nil || s.chatID == "" {
		s.logg.Warn(ctx, "telegram bot credentials not configured")
		return ErrNotConfigured
	}

	err := s.sender.SendMessage(ctx, telegram.SendMessageRequest{
		ChatID:    s.chatID,
		Text:      FormatOrderMessage(order),
		ParseMode: telegram.ParseModeMarkdown,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send order notification")
	}
	return nil
}

// FormatOrderMessage renders the Markdown message posted for a new order.
func FormatOrderMessage(order OrderPlaced) string {
	var b strings.Builder
	b.WriteString("🛒 *New Order Received!*\n\n")
	fmt.Fprintf(&b, "📦 Order ID: %s\n", order.OrderID)
	fmt.Fprintf(&b, "📱 Phone: %s\n", order.PhoneNumber)
	fmt.Fprintf(&b, "💰 Total: $%s\n\n", order.TotalAmount.StringFixed(2))
	b.WriteString("*Items:*\n")
	for _, item := range order.Items {
		subtotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		fmt.Fprintf(&b, "• %s x %d - $%s\n", item.Name, item.Quantity, subtotal.StringFixed(2))
	}
	placedAt := order.PlacedAt
	if placedAt.IsZero() {
		placedAt = time.Now().UTC()
	}
	fmt.Fprintf(&b, "\n⏰ %s", placedAt.Format("2006-01-02 15:04:05 MST"))
	return b.String()
}
