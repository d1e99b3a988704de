package recovery

import (
	"math"

	log "github.com/sirupsen/logrus"
	"github.com/tradewind/recall/go/recall"
)

// priceTolerance bounds the average-price comparison: fills reported
// at sub-pip precision must still match the ticket's rounded price.
const priceTolerance = 1e-4

// compare decides the recovery action for one order. It never mutates
// the rebuilt order; the only mutations are the ticket's CurrentState
// and the context flags, in the explicit branches below.
func compare(rc *Context) Action {
	var order = rc.RebuiltOrder()
	var ticket = rc.Ticket
	if order == nil || ticket == nil {
		return ActionIgnore
	}
	rc.PriorTicketState = ticket.CurrentState

	var orderState = order.CurrentState
	var ticketState = ticket.CurrentState

	if statesEquivalent(orderState, ticketState) {
		if orderState.IsFinalFill() && recall.OrderState(ticketState).IsFinalFill() {
			rc.NeedsDFDRequest = true
		}
		return ActionRebuild
	}

	// Mismatch handling.
	if orderState.IsFinalFill() && recall.OrderState(ticketState).IsFinalFill() {
		rc.NeedsDFDRequest = true
		return ActionRebuild
	}

	if recall.OrderState(ticketState).IsPending() && orderState.String() != ticketState {
		if quantitiesAndPriceMatch(order, ticket) {
			// The order is authoritative: adopt its state, but flag the
			// overwrite as an audit signal.
			ticket.CurrentState = orderState.String()
			rc.ForceTicketStateUpdate = true
			log.WithFields(log.Fields{
				"orderID":     rc.OrderID,
				"orderState":  orderState,
				"ticketState": rc.PriorTicketState,
			}).Error("rebuilt order state overwrote a pending ticket state with matching quantities")
			return ActionRebuild
		}
		ticket.CurrentState = orderState.String()
		return ActionRepublish
	}

	return ActionRepublish
}

// statesEquivalent reports whether the order and ticket vocabularies
// agree. "Created" is the ticket-side spelling of a New order, and a
// DoneOfDay order is equivalent to any terminal ticket state.
func statesEquivalent(o recall.OrderState, t string) bool {
	if o.String() == t {
		return true
	}
	if o == recall.StateNew && t == recall.TicketCreated {
		return true
	}
	if o == recall.StateDoneOfDay && recall.OrderState(t).IsFinalFill() {
		return true
	}
	return false
}

// quantitiesAndPriceMatch requires the order quantity, cumulative fill
// quantity, and average fill price to agree with the ticket.
func quantitiesAndPriceMatch(order *recall.Order, ticket *recall.Ticket) bool {
	var cumQty int64
	var avgPrice float64
	if order.FillRequest != nil {
		cumQty = order.FillRequest.CumQty
		avgPrice = order.FillRequest.AvgPrice
	}
	return order.OrdQty == ticket.RecallQty &&
		cumQty == ticket.FillQty &&
		math.Abs(avgPrice-ticket.FillPrice) < priceTolerance
}
