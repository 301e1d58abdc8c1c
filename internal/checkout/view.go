package checkout

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/i18n"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderSummary identifies the order a successful checkout produced.
type OrderSummary struct {
	ID          uuid.UUID       `json:"id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// View is the checkout payload returned to clients.
type View struct {
	State       enums.CheckoutState `json:"state"`
	PhoneNumber string              `json:"phone_number"`
	Error       string              `json:"error,omitempty"`
	ErrorKey    i18n.Key            `json:"error_key,omitempty"`
	Order       *OrderSummary       `json:"order,omitempty"`
	ItemCount   int                 `json:"item_count"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
}

// LogFields tags request logs written for a rejected checkout call.
func (v View) LogFields() map[string]any {
	fields := map[string]any{
		"checkout_state": v.State,
		"checkout_items": v.ItemCount,
	}
	if v.Order != nil {
		fields["order_id"] = v.Order.ID.String()
	}
	return fields
}

func (v View) details() map[string]any {
	details := map[string]any{
		"state":        v.State,
		"phone_number": v.PhoneNumber,
	}
	if v.ErrorKey != "" {
		details["error_key"] = v.ErrorKey
	}
	return details
}
