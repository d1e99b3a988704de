package messaging

import (
	"bytes"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tradewind/recall/go/codec"
	"github.com/tradewind/recall/go/recall"
	"github.com/tradewind/recall/go/txlog"
)

// Subscriber turns raw topic frames into transaction-log entries and
// feeds the aggregator. A malformed frame is dropped with a WARN: a
// single bad message must not abort the replay window.
type Subscriber struct {
	Topics     txlog.Topics
	Aggregator *txlog.Aggregator
}

// Consume decodes one frame from |source| and aggregates it.
func (s *Subscriber) Consume(source txlog.Source, frame []byte, arrival time.Time) {
	var entry, err = s.decode(source, frame, arrival)

	var parseErr *codec.ParsingError
	if errors.As(err, &parseErr) {
		log.WithFields(log.Fields{"source": source, "err": err}).
			Warn("dropping malformed transaction-log frame")
		return
	} else if err != nil {
		log.WithFields(log.Fields{"source": source, "err": err}).
			Warn("dropping incomplete transaction-log frame")
		return
	}
	s.Aggregator.Add(entry)
}

func (s *Subscriber) decode(source txlog.Source, frame []byte, arrival time.Time) (txlog.Entry, error) {
	switch source {
	case s.Topics.TicketHistory:
		return s.decodeTicket(source, frame, arrival)
	case s.Topics.RecallToOMS:
		if looksLikeExecReport(frame) {
			return s.decodeExecReport(source, frame, arrival)
		}
		return s.decodeOrder(source, frame, arrival)
	case s.Topics.OMSToRecall:
		return s.decodeExecReport(source, frame, arrival)
	default:
		return txlog.Entry{}, errors.New("frame from unrecognized topic")
	}
}

func (s *Subscriber) decodeTicket(source txlog.Source, frame []byte, arrival time.Time) (txlog.Entry, error) {
	var ticket = new(recall.Ticket)
	if err := codec.Decode(frame, ticket); err != nil {
		return txlog.Entry{}, err
	}
	var ts = ticket.UpdatedTime
	if ts.IsZero() {
		ts = arrival
	}
	return txlog.NewBuilder().
		OrderID(ticket.ID).
		Source(source).
		State(ticket.CurrentState).
		Timestamp(ts).
		Message(ticket).
		RecallQty(ticket.RecallQty).
		FillQty(ticket.FillQty).
		FillPrice(ticket.FillPrice).
		Build()
}

func (s *Subscriber) decodeOrder(source txlog.Source, frame []byte, arrival time.Time) (txlog.Entry, error) {
	var order = new(recall.Order)
	if err := codec.Decode(frame, order); err != nil {
		return txlog.Entry{}, err
	}
	var fillQty int64
	var fillPrice float64
	if order.FillRequest != nil {
		fillQty = order.FillRequest.CumQty
		fillPrice = order.FillRequest.AvgPrice
	} else if order.AmendRequest != nil {
		fillPrice = order.AmendRequest.Price
	}
	return txlog.NewBuilder().
		OrderID(order.OrderID).
		Source(source).
		State(order.CurrentState.String()).
		Timestamp(arrival).
		Message(order).
		RecallQty(order.OrdQty).
		FillQty(fillQty).
		FillPrice(fillPrice).
		Build()
}

func (s *Subscriber) decodeExecReport(source txlog.Source, frame []byte, arrival time.Time) (txlog.Entry, error) {
	var report = new(recall.ExecutionReport)
	if err := codec.Decode(frame, report); err != nil {
		return txlog.Entry{}, err
	}
	var ts = report.TransactTime
	if ts.IsZero() {
		ts = report.SendingTime
	}
	if ts.IsZero() {
		ts = arrival
	}
	return txlog.NewBuilder().
		OrderID(report.OrderID).
		Source(source).
		State(report.OrderState).
		Timestamp(ts).
		Message(report).
		RecallQty(report.CumQty + report.LeavesQty).
		FillQty(report.CumQty).
		FillPrice(report.AvgPrice).
		ExecutionID(report.ExecID).
		ExecType(report.ExecType).
		Build()
}

// looksLikeExecReport distinguishes the two payload types carried by
// the outbound OMS topic. JSON and hybrid frames are probed for the
// report's top-level keys, because an Order snapshot nests a serialized
// report under fillRequest and a raw byte scan would misroute it.
// NVFIX frames carry an ExecID tag only on reports, so the tag scan is
// sound there.
func looksLikeExecReport(frame []byte) bool {
	var trimmed = bytes.TrimSpace(frame)
	if len(trimmed) != 0 && trimmed[0] == '{' {
		var probe struct {
			ExecID     string `json:"execId"`
			OrderState string `json:"orderState"`
		}
		if codec.Decode(trimmed, &probe) != nil {
			return false
		}
		return probe.ExecID != "" || probe.OrderState != ""
	}
	return bytes.Contains(bytes.ToLower(frame), []byte("execid"))
}
