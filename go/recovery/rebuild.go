package recovery

import (
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tradewind/recall/go/recall"
	"github.com/tradewind/recall/go/txlog"
)

// rebuildOrder synthesises the current Order by folding the order's
// OMS entries, in chronological order, over an order seeded from the
// ticket. A nil ticket (or un-seedable order) yields nil.
func rebuildOrder(ticket *recall.Ticket, omsEntries []txlog.Entry, topics txlog.Topics) *recall.Order {
	var order = recall.OrderFromTicket(ticket)
	if order == nil {
		return nil
	}
	order.CurrentState = recall.StateNew
	order.FillRequest = nil

	// The recall quantity of the earliest OMS entry is authoritative;
	// the ticket's is the fallback when the OMS never saw the order.
	var recallQty = ticket.RecallQty
	if len(omsEntries) != 0 {
		recallQty = omsEntries[0].RecallQty()
	}
	applyRecallQty(order, recallQty)

	for _, entry := range omsEntries {
		if payload, ok := entry.AsOrder(); ok {
			foldOrderEntry(order, entry, payload, topics)
		} else if report, ok := entry.AsExecutionReport(); ok {
			foldExecReportEntry(order, entry, report, topics)
		} else {
			log.WithFields(log.Fields{
				"orderID": entry.OrderID(),
				"source":  entry.Source(),
				"payload": entry.Message(),
			}).Warn("skipping log entry with unexpected payload type")
		}
	}
	return order
}

func applyRecallQty(order *recall.Order, qty int64) {
	order.OrdQty = qty
	if order.FillRequest != nil {
		order.FillRequest.LeavesQty = qty
	}
	if order.AmendRequest != nil {
		order.AmendRequest.OrderQty = qty
	}
}

// foldOrderEntry applies an Order-payload entry. PendingFill and
// DoneOfDay arriving on the outbound topic are carried by execution
// reports instead, and must not move the state here.
func foldOrderEntry(order *recall.Order, entry txlog.Entry, payload *recall.Order, topics txlog.Topics) {
	var state = recall.OrderState(entry.State())

	var suppressed = entry.Source() == topics.RecallToOMS &&
		(state == recall.StatePendingFill || state == recall.StateDoneOfDay)
	if !suppressed {
		order.CurrentState = state
	}

	if state == recall.StatePendingReplace || state == recall.StatePendingCancel {
		if payload.AmendRequest != nil {
			var amend = *payload.AmendRequest
			order.AmendRequest = &amend
		} else {
			order.AmendRequest = &recall.AmendRequest{
				OrderQty:    entry.RecallQty(),
				Price:       entry.FillPrice(),
				ClOrdID:     uuid.NewString(),
				OrigClOrdID: order.OrderID,
			}
		}
	}
}

func foldExecReportEntry(order *recall.Order, entry txlog.Entry, report *recall.ExecutionReport, topics txlog.Topics) {
	var state = recall.OrderState(entry.State())

	switch entry.Source() {
	case topics.OMSToRecall:
		order.CurrentState = state
	case topics.RecallToOMS:
		if state == recall.StatePendingFill || state == recall.StateDoneOfDay {
			order.CurrentState = state
		}
	}

	var fillBearing = (entry.Source() == topics.RecallToOMS && state == recall.StatePendingFill) ||
		(entry.Source() == topics.OMSToRecall &&
			(state == recall.StateFilled || state == recall.StatePartiallyFilled))
	if fillBearing {
		patchFillRequest(order, report)
	}
}

// patchFillRequest materialises or refines the order's fill request.
// Later reports refine but never regress non-zero quantities or
// prices (the monotonic-fill rule).
func patchFillRequest(order *recall.Order, report *recall.ExecutionReport) {
	if order.FillRequest == nil {
		var fill = report.Clone()
		if fill.ClOrdID == "" {
			fill.ClOrdID = order.OrderID
		}
		if fill.OrigClOrdID == "" {
			fill.OrigClOrdID = order.OrderID
		}
		if fill.OrderID == "" {
			fill.OrderID = order.OrderID
		}
		if fill.Currency == "" {
			fill.Currency = order.Currency
		}
		if fill.Side == "" {
			fill.Side = order.Side
		}
		if fill.Symbol == "" {
			fill.Symbol = order.Symbol
		}
		order.FillRequest = fill
		return
	}

	var fill = order.FillRequest
	if report.LastQty > 0 {
		fill.LastQty = report.LastQty
	}
	if report.CumQty > 0 {
		fill.CumQty = report.CumQty
	}
	if report.LeavesQty >= 0 {
		fill.LeavesQty = report.LeavesQty
	}
	if report.LastPrice > 0 {
		fill.LastPrice = report.LastPrice
	}
	if report.AvgPrice > 0 {
		fill.AvgPrice = report.AvgPrice
	}
	if report.ExecID != "" {
		fill.ExecID = report.ExecID
	}
	if report.ExecType != "" {
		fill.ExecType = report.ExecType
	}
	if report.OrderState != "" {
		fill.OrderState = report.OrderState
	}
	if !report.TransactTime.IsZero() {
		fill.TransactTime = report.TransactTime
	}
	if !report.SendingTime.IsZero() {
		fill.SendingTime = report.SendingTime
	}
}
