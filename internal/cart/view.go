package cart

import "github.com/shopspring/decimal"

// View is the cart payload returned to clients.
type View struct {
	Lines          []Line          `json:"lines"`
	TotalItemCount int             `json:"total_item_count"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

func newView(lines []Line) View {
	copied := make([]Line, len(lines))
	copy(copied, lines)
	return View{
		Lines:          copied,
		TotalItemCount: totalItemCount(lines),
		TotalAmount:    totalAmount(lines),
	}
}
