// Package recall defines the business objects of the trade-recall
// workflow: recall tickets, the orders derived from them, and the
// execution reports exchanged with the OMS.
package recall

import "time"

// Ticket is a recall ticket as published on the ticket-history stream.
// CurrentState is the only field the recovery core mutates; everything
// else is read-only once decoded.
type Ticket struct {
	ID            string    `json:"id"`
	CurrentState  string    `json:"currentState"`
	RecallQty     int64     `json:"recallQty"`
	FillQty       int64     `json:"fillQty"`
	FillPrice     float64   `json:"fillPrice"`
	EffectiveDate string    `json:"effectiveDate,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	Ticker        string    `json:"ticker,omitempty"`
	Fund          string    `json:"fund,omitempty"`
	Side          string    `json:"side,omitempty"`
	UpdatedTime   time.Time `json:"updatedTime,omitempty"`
}
