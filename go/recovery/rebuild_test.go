package recovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tradewind/recall/go/recall"
	"github.com/tradewind/recall/go/txlog"
)

var testTopics = txlog.Topics{
	TicketHistory: "RECALL/TICKET/HISTORY",
	RecallToOMS:   "RECALL/TO/OMS",
	OMSToRecall:   "OMS/TO/RECALL",
}

var t0 = time.Date(2025, 3, 21, 14, 0, 0, 0, time.UTC)

func testTicket() *recall.Ticket {
	return &recall.Ticket{
		ID:           "ord-1",
		CurrentState: "Created",
		RecallQty:    100,
		Currency:     "USD",
		Ticker:       "IBM",
		Fund:         "FUND-A",
		Side:         "1",
	}
}

func entryAt(t *testing.T, source txlog.Source, state string, ts time.Time, msg interface{}) txlog.Entry {
	t.Helper()
	var entry, err = txlog.NewBuilder().
		OrderID("ord-1").
		Source(source).
		State(state).
		Timestamp(ts).
		Message(msg).
		RecallQty(100).
		Build()
	require.NoError(t, err)
	return entry
}

func reportEntry(t *testing.T, source txlog.Source, state string, ts time.Time, report *recall.ExecutionReport) txlog.Entry {
	t.Helper()
	return entryAt(t, source, state, ts, report)
}

func TestRebuildNilTicketYieldsNilOrder(t *testing.T) {
	require.Nil(t, rebuildOrder(nil, nil, testTopics))
}

func TestRebuildSeedsFromTicketWithoutOMSEntries(t *testing.T) {
	var order = rebuildOrder(testTicket(), nil, testTopics)
	require.NotNil(t, order)
	require.Equal(t, "ord-1", order.OrderID)
	require.Equal(t, recall.StateNew, order.CurrentState)
	require.Equal(t, int64(100), order.OrdQty)
	require.Equal(t, "IBM", order.Symbol)
	require.Equal(t, "FUND-A", order.Account)
	require.Nil(t, order.FillRequest)
}

func TestRebuildRecallQtyFromEarliestOMSEntry(t *testing.T) {
	var earliest, err = txlog.NewBuilder().
		OrderID("ord-1").
		Source(testTopics.RecallToOMS).
		State("New").
		Timestamp(t0).
		Message(&recall.Order{OrderID: "ord-1"}).
		RecallQty(250).
		Build()
	require.NoError(t, err)

	var order = rebuildOrder(testTicket(), []txlog.Entry{earliest}, testTopics)
	require.Equal(t, int64(250), order.OrdQty)
}

func TestRebuildOrderPayloadStateTransitions(t *testing.T) {
	var ticket = testTicket()
	var payload = &recall.Order{OrderID: "ord-1"}

	// A PendingNew on the outbound topic moves the state.
	var order = rebuildOrder(ticket, []txlog.Entry{
		entryAt(t, testTopics.RecallToOMS, "PendingNew", t0, payload),
	}, testTopics)
	require.Equal(t, recall.StatePendingNew, order.CurrentState)

	// PendingFill and DoneOfDay on the outbound topic are carried by
	// execution reports only: an Order payload must not move the state.
	for _, state := range []string{"PendingFill", "DoneOfDay"} {
		order = rebuildOrder(ticket, []txlog.Entry{
			entryAt(t, testTopics.RecallToOMS, state, t0, payload),
		}, testTopics)
		require.Equal(t, recall.StateNew, order.CurrentState, state)
	}
}

func TestRebuildSynthesisesAmendRequest(t *testing.T) {
	var entry, err = txlog.NewBuilder().
		OrderID("ord-1").
		Source(testTopics.RecallToOMS).
		State("PendingReplace").
		Timestamp(t0).
		Message(&recall.Order{OrderID: "ord-1"}).
		RecallQty(150).
		FillPrice(9.75).
		Build()
	require.NoError(t, err)

	var order = rebuildOrder(testTicket(), []txlog.Entry{entry}, testTopics)
	require.NotNil(t, order.AmendRequest)
	require.Equal(t, int64(150), order.AmendRequest.OrderQty)
	require.Equal(t, 9.75, order.AmendRequest.Price)
	require.NotEmpty(t, order.AmendRequest.ClOrdID)
	require.Equal(t, "ord-1", order.AmendRequest.OrigClOrdID)
}

func TestRebuildCopiesAmendRequestFromPayload(t *testing.T) {
	var payload = &recall.Order{
		OrderID:      "ord-1",
		AmendRequest: &recall.AmendRequest{OrderQty: 80, Price: 11, ClOrdID: "cl-2", OrigClOrdID: "cl-1"},
	}
	var order = rebuildOrder(testTicket(), []txlog.Entry{
		entryAt(t, testTopics.RecallToOMS, "PendingCancel", t0, payload),
	}, testTopics)

	require.NotNil(t, order.AmendRequest)
	require.Equal(t, "cl-2", order.AmendRequest.ClOrdID)
	require.NotSame(t, payload.AmendRequest, order.AmendRequest)
}

func TestRebuildExecReportStateRules(t *testing.T) {
	var ticket = testTicket()

	// Inbound reports always move the state.
	var order = rebuildOrder(ticket, []txlog.Entry{
		reportEntry(t, testTopics.OMSToRecall, "Canceled", t0, &recall.ExecutionReport{OrderID: "ord-1"}),
	}, testTopics)
	require.Equal(t, recall.StateCanceled, order.CurrentState)

	// Outbound reports move it only for PendingFill and DoneOfDay.
	order = rebuildOrder(ticket, []txlog.Entry{
		reportEntry(t, testTopics.RecallToOMS, "Canceled", t0, &recall.ExecutionReport{OrderID: "ord-1"}),
	}, testTopics)
	require.Equal(t, recall.StateNew, order.CurrentState)

	order = rebuildOrder(ticket, []txlog.Entry{
		reportEntry(t, testTopics.RecallToOMS, "PendingFill", t0, &recall.ExecutionReport{OrderID: "ord-1", LeavesQty: 100}),
	}, testTopics)
	require.Equal(t, recall.StatePendingFill, order.CurrentState)
}

func TestRebuildFillRequestIdentityDefaults(t *testing.T) {
	var report = &recall.ExecutionReport{
		ExecID:    "e1",
		LastQty:   40,
		CumQty:    40,
		LeavesQty: 60,
		LastPrice: 10.5,
		AvgPrice:  10.5,
	}
	var order = rebuildOrder(testTicket(), []txlog.Entry{
		reportEntry(t, testTopics.OMSToRecall, "PartiallyFilled", t0, report),
	}, testTopics)

	var fill = order.FillRequest
	require.NotNil(t, fill)
	require.Equal(t, "ord-1", fill.ClOrdID)
	require.Equal(t, "ord-1", fill.OrigClOrdID)
	require.Equal(t, "ord-1", fill.OrderID)
	require.Equal(t, "USD", fill.Currency)
	require.Equal(t, "1", fill.Side)
	require.Equal(t, "IBM", fill.Symbol)

	// The source report is cloned, not aliased.
	require.NotSame(t, report, fill)

	// leavesQty == ordQty - cumQty.
	require.Equal(t, order.OrdQty-fill.CumQty, fill.LeavesQty)
}

func TestRebuildMonotonicFill(t *testing.T) {
	var first = reportEntry(t, testTopics.OMSToRecall, "PartiallyFilled", t0,
		&recall.ExecutionReport{ExecID: "e1", LastQty: 50, CumQty: 50, LeavesQty: 50, LastPrice: 10, AvgPrice: 10})
	var second = reportEntry(t, testTopics.OMSToRecall, "Filled", t0.Add(time.Second),
		&recall.ExecutionReport{ExecID: "e2", LastQty: 25, CumQty: 75, LeavesQty: 25, AvgPrice: 10.1})

	var order = rebuildOrder(testTicket(), []txlog.Entry{first, second}, testTopics)
	var fill = order.FillRequest
	require.Equal(t, int64(75), fill.CumQty)
	require.Equal(t, int64(25), fill.LeavesQty)
	require.Equal(t, 10.1, fill.AvgPrice)
	// A zero price in the later report never regresses the earlier one.
	require.Equal(t, 10.0, fill.LastPrice)
	require.Equal(t, "e2", fill.ExecID)
	require.Equal(t, recall.StateFilled, order.CurrentState)
}

func TestRebuildIsArrivalOrderIndependent(t *testing.T) {
	var entries = []txlog.Entry{
		reportEntry(t, testTopics.OMSToRecall, "Filled", t0.Add(time.Second),
			&recall.ExecutionReport{ExecID: "e2", CumQty: 75, LeavesQty: 25, AvgPrice: 10.1}),
		reportEntry(t, testTopics.OMSToRecall, "PartiallyFilled", t0,
			&recall.ExecutionReport{ExecID: "e1", LastQty: 50, CumQty: 50, LeavesQty: 50, LastPrice: 10, AvgPrice: 10}),
	}
	// The driver sorts chronologically before the fold; reversed arrival
	// order must therefore yield the same rebuilt order.
	sortByTimestamp(entries)

	var order = rebuildOrder(testTicket(), entries, testTopics)
	require.Equal(t, int64(75), order.FillRequest.CumQty)
	require.Equal(t, recall.StateFilled, order.CurrentState)
}

func TestRebuildUnknownPayloadIsSkipped(t *testing.T) {
	var entry, err = txlog.NewBuilder().
		OrderID("ord-1").
		Source(testTopics.RecallToOMS).
		State("New").
		Timestamp(t0).
		Message("not a known payload").
		RecallQty(100).
		Build()
	require.NoError(t, err)

	var order = rebuildOrder(testTicket(), []txlog.Entry{entry}, testTopics)
	require.NotNil(t, order)
	require.Equal(t, recall.StateNew, order.CurrentState)
}
