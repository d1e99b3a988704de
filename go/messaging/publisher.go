package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tradewind/recall/go/codec"
	"github.com/tradewind/recall/go/recall"
	"go.gazette.dev/core/broker/client"
	pb "go.gazette.dev/core/broker/protocol"
)

// doneForDayEvent is the event token stamped onto compensating DFD
// requests. DoneOfDay is the canonical spelling.
const doneForDayEvent = "DoneOfDay"

// Appender publishes newline-delimited frames to journals through an
// AsyncJournalClient.
type Appender struct {
	AJC client.AsyncJournalClient
}

// Publish appends |frame| plus a trailing newline to |journal| and
// waits for the append to commit.
func (a Appender) Publish(ctx context.Context, journal pb.Journal, frame []byte) error {
	var aa = a.AJC.StartAppend(pb.AppendRequest{Journal: journal}, nil)
	_, _ = aa.Writer().Write(frame)
	_ = aa.Writer().WriteByte('\n')
	if err := aa.Release(); err != nil {
		return fmt.Errorf("appending to %s: %w", journal, err)
	}

	select {
	case <-aa.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := aa.Err(); err != nil {
		return fmt.Errorf("appending to %s: %w", journal, err)
	}
	return nil
}

// Client is the outbound messaging client of the recovery driver.
type Client struct {
	Appender
	RecallTicketTopic pb.Journal
	DFDTopic          pb.Journal
}

// PublishRecallTicket serialises |ticket| to JSON and re-emits it on
// the recall-ticket topic.
func (c *Client) PublishRecallTicket(ctx context.Context, ticket *recall.Ticket) error {
	if c.RecallTicketTopic == "" {
		log.WithField("ticket", ticket.ID).
			Warn("no recall-ticket topic configured; skipping republish")
		return nil
	}
	var frame, err = json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("encoding ticket %s: %w", ticket.ID, err)
	}
	return c.Publish(ctx, c.RecallTicketTopic, frame)
}

// PublishDoneForDay emits an NVFIX done-for-day request built from the
// rebuilt order.
func (c *Client) PublishDoneForDay(ctx context.Context, order *recall.Order) error {
	if c.DFDTopic == "" {
		log.WithField("orderID", order.OrderID).
			Warn("no DFD topic configured; skipping done-for-day request")
		return nil
	}
	var frame, err = DoneForDayRequest(order)
	if err != nil {
		return err
	}
	return c.Publish(ctx, c.DFDTopic, frame)
}

// DoneForDayRequest transforms a rebuilt order into the outbound NVFIX
// done-for-day request.
func DoneForDayRequest(order *recall.Order) ([]byte, error) {
	var buf, err = codec.AppendNVFIX(nil, order)
	if err != nil {
		return nil, fmt.Errorf("encoding DFD request for %s: %w", order.OrderID, err)
	}
	return codec.AppendPair(buf, "EventType", doneForDayEvent), nil
}
