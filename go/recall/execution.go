package recall

import "time"

// ExecutionReport mirrors the FIX execution report fields the recall
// workflow consumes. Quantities are share counts; prices are absolute.
type ExecutionReport struct {
	ExecID       string    `json:"execId"`
	ExecType     string    `json:"execType,omitempty"`
	ClOrdID      string    `json:"clOrdId"`
	OrigClOrdID  string    `json:"origClOrdId,omitempty"`
	OrderID      string    `json:"orderId"`
	LastQty      int64     `json:"lastQty"`
	CumQty       int64     `json:"cumQty"`
	LeavesQty    int64     `json:"leavesQty"`
	LastPrice    float64   `json:"lastPrice"`
	AvgPrice     float64   `json:"avgPrice"`
	OrderState   string    `json:"orderState,omitempty"`
	TransactTime time.Time `json:"transactTime,omitempty"`
	SendingTime  time.Time `json:"sendingTime,omitempty"`
	Currency     string    `json:"currency,omitempty"`
	Side         string    `json:"side,omitempty"`
	Symbol       string    `json:"symbol,omitempty"`
}

// Clone returns a deep copy of the report.
func (r *ExecutionReport) Clone() *ExecutionReport {
	if r == nil {
		return nil
	}
	var c = *r
	return &c
}
