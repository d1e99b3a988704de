package recall

// OrderState enumerates the lifecycle states of a recall Order.
// States surfaced verbatim from upstream messages are carried as-is,
// which is why this is a string type rather than an iota enum.
type OrderState string

const (
	StateNew             OrderState = "New"
	StatePendingNew      OrderState = "PendingNew"
	StatePendingReplace  OrderState = "PendingReplace"
	StatePendingFill     OrderState = "PendingFill"
	StatePendingCancel   OrderState = "PendingCancel"
	StateFilled          OrderState = "Filled"
	StatePartiallyFilled OrderState = "PartiallyFilled"
	StateCanceled        OrderState = "Canceled"
	StateDoneOfDay       OrderState = "DoneOfDay"
)

// TicketCreated is the ticket-side spelling of a freshly opened ticket,
// which has no counterpart in the order vocabulary.
const TicketCreated = "Created"

func (s OrderState) String() string { return string(s) }

// IsFinalFill reports whether |s| is a terminal filled-or-cancelled
// state. Both sides of reconciliation reaching this set triggers a
// compensating done-for-day publish.
func (s OrderState) IsFinalFill() bool {
	switch s {
	case StateFilled, StatePartiallyFilled, StateCanceled:
		return true
	}
	return false
}

// IsPending reports whether |s| is one of the transient pending states.
func (s OrderState) IsPending() bool {
	switch s {
	case StatePendingNew, StatePendingReplace, StatePendingFill, StatePendingCancel:
		return true
	}
	return false
}
