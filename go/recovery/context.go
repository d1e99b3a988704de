// Package recovery implements the transaction-log recovery pass: it
// rebuilds each recall order from its aggregated log entries, compares
// the rebuilt state against the last observed ticket state, and applies
// the resulting action to the state cache and outbound topics.
package recovery

import (
	"github.com/tradewind/recall/go/recall"
	"github.com/tradewind/recall/go/txlog"
)

// Action is the comparator's decision for one order.
type Action int

const (
	// ActionIgnore leaves the cache untouched.
	ActionIgnore Action = iota
	// ActionRebuild installs the ticket and rebuilt order into the cache.
	ActionRebuild
	// ActionRepublish installs both and re-emits the ticket, stamped
	// with the order's state, onto the recall-ticket topic.
	ActionRepublish
)

func (a Action) String() string {
	switch a {
	case ActionRebuild:
		return "REBUILD"
	case ActionRepublish:
		return "REPUBLISH"
	default:
		return "IGNORE"
	}
}

// Context is the per-order bundle the driver assembles for the
// comparator. It's populated once, consumed, and discarded.
type Context struct {
	OrderID string
	// Ticket decoded from the latest ticket-history entry.
	Ticket *recall.Ticket
	// LatestHistory is the last ticket-history entry after filtering.
	LatestHistory txlog.Entry
	// LatestToOMS and LatestFromOMS are the most recent entries of the
	// two OMS topics, when any survived filtering.
	LatestToOMS   *txlog.Entry
	LatestFromOMS *txlog.Entry
	// TicketHistoryEntries and OMSEntries are filtered and sorted by
	// timestamp, stable on ties.
	TicketHistoryEntries []txlog.Entry
	OMSEntries           []txlog.Entry

	// NeedsDFDRequest is set by the comparator when both sides agree
	// the order reached a terminal filled-or-cancelled state.
	NeedsDFDRequest bool
	// ForceTicketStateUpdate records that the ticket's state was
	// overwritten to match the order despite matching quantities.
	// It's an audit flag only.
	ForceTicketStateUpdate bool
	// PriorTicketState is the ticket state before any overwrite.
	PriorTicketState string

	topics  txlog.Topics
	rebuilt *recall.Order
	built   bool
}

// RebuiltOrder lazily rebuilds the order on first access. The result
// is stable across repeated reads; a nil order means the rebuild could
// not be seeded and the context resolves to IGNORE.
func (rc *Context) RebuiltOrder() *recall.Order {
	if !rc.built {
		rc.rebuilt = rebuildOrder(rc.Ticket, rc.OMSEntries, rc.topics)
		rc.built = true
	}
	return rc.rebuilt
}
