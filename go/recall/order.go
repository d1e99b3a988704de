package recall

// Order is the OMS-side view of a recall ticket. OrderID equals the
// originating Ticket.ID.
type Order struct {
	OrderID      string           `json:"orderId"`
	CurrentState OrderState       `json:"currentState"`
	OrdQty       int64            `json:"ordQty"`
	FillRequest  *ExecutionReport `json:"fillRequest,omitempty"`
	AmendRequest *AmendRequest    `json:"amendRequest,omitempty"`
	Symbol       string           `json:"symbol,omitempty"`
	Account      string           `json:"account,omitempty"`
	Currency     string           `json:"currency,omitempty"`
	Side         string           `json:"side,omitempty"`
}

// AmendRequest captures an in-flight replace or cancel of an order.
type AmendRequest struct {
	OrderQty    int64   `json:"orderQty"`
	Price       float64 `json:"price"`
	ClOrdID     string  `json:"clOrdId"`
	OrigClOrdID string  `json:"origClOrdId"`
}

// OrderFromTicket seeds an Order from a recall ticket, copying the
// static scaffolding the OMS expects. Returns nil for a nil ticket.
func OrderFromTicket(t *Ticket) *Order {
	if t == nil {
		return nil
	}
	return &Order{
		OrderID:      t.ID,
		CurrentState: StateNew,
		OrdQty:       t.RecallQty,
		Symbol:       t.Ticker,
		Account:      t.Fund,
		Currency:     t.Currency,
		Side:         t.Side,
	}
}
