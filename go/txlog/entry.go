// Package txlog models the append-only transaction log the recovery
// pass replays: immutable per-topic log entries, and their aggregation
// by order ID over the replay window.
package txlog

import (
	"errors"
	"time"

	"github.com/tradewind/recall/go/recall"
)

// Source names the topic stream an entry arrived on.
type Source string

// Topics bundles the three consumed topic names. They're configured;
// the core treats them as opaque strings.
type Topics struct {
	TicketHistory Source
	RecallToOMS   Source
	OMSToRecall   Source
}

// Entry is one record of the transaction log. Entries are immutable
// once built: construct them only through a Builder.
type Entry struct {
	orderID     string
	source      Source
	state       string
	timestamp   time.Time
	message     interface{}
	recallQty   int64
	fillQty     int64
	fillPrice   float64
	executionID string
	execType    string
}

func (e Entry) OrderID() string { return e.orderID }
func (e Entry) Source() Source { return e.source }
func (e Entry) State() string { return e.state }
func (e Entry) Timestamp() time.Time { return e.timestamp }
func (e Entry) RecallQty() int64 { return e.recallQty }
func (e Entry) FillQty() int64 { return e.fillQty }
func (e Entry) FillPrice() float64 { return e.fillPrice }
func (e Entry) ExecutionID() string { return e.executionID }
func (e Entry) ExecType() string { return e.execType }

// Message returns the raw polymorphic payload. Prefer the typed
// accessors below.
func (e Entry) Message() interface{} { return e.message }

// AsTicket returns the payload as a Ticket, or ok=false when the
// payload is of another type. Never an error: payload-type probing is
// how the rebuilder dispatches.
func (e Entry) AsTicket() (*recall.Ticket, bool) {
	var t, ok = e.message.(*recall.Ticket)
	return t, ok
}

func (e Entry) AsOrder() (*recall.Order, bool) {
	var o, ok = e.message.(*recall.Order)
	return o, ok
}

func (e Entry) AsExecutionReport() (*recall.ExecutionReport, bool) {
	var r, ok = e.message.(*recall.ExecutionReport)
	return r, ok
}

var errIncompleteEntry = errors.New("entry requires orderID, source, state, and timestamp")

// Builder accumulates Entry fields and validates required ones.
type Builder struct {
	entry Entry
}

func NewBuilder() *Builder { return new(Builder) }

func (b *Builder) OrderID(id string) *Builder { b.entry.orderID = id; return b }
func (b *Builder) Source(s Source) *Builder { b.entry.source = s; return b }
func (b *Builder) State(s string) *Builder { b.entry.state = s; return b }
func (b *Builder) Timestamp(t time.Time) *Builder { b.entry.timestamp = t; return b }
func (b *Builder) Message(m interface{}) *Builder { b.entry.message = m; return b }
func (b *Builder) RecallQty(q int64) *Builder { b.entry.recallQty = q; return b }
func (b *Builder) FillQty(q int64) *Builder { b.entry.fillQty = q; return b }
func (b *Builder) FillPrice(p float64) *Builder { b.entry.fillPrice = p; return b }
func (b *Builder) ExecutionID(id string) *Builder { b.entry.executionID = id; return b }
func (b *Builder) ExecType(t string) *Builder { b.entry.execType = t; return b }

// Build validates and returns the Entry.
func (b *Builder) Build() (Entry, error) {
	var e = b.entry
	if e.orderID == "" || e.source == "" || e.state == "" || e.timestamp.IsZero() {
		return Entry{}, errIncompleteEntry
	}
	return e, nil
}
