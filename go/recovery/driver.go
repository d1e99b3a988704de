package recovery

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/tradewind/recall/go/bookmark"
	"github.com/tradewind/recall/go/cache"
	"github.com/tradewind/recall/go/recall"
	"github.com/tradewind/recall/go/txlog"
)

// Outbound publishes the recovery pass's compensating messages. A nil
// Outbound on the Driver skips the affected steps with a WARN.
type Outbound interface {
	// PublishRecallTicket re-emits a ticket onto the recall-ticket topic.
	PublishRecallTicket(ctx context.Context, ticket *recall.Ticket) error
	// PublishDoneForDay emits a compensating DFD request for the order.
	PublishDoneForDay(ctx context.Context, order *recall.Order) error
}

// Driver orchestrates the recovery pass over the aggregated
// transaction log. It implements cache.Recoverer.
type Driver struct {
	Aggregator *txlog.Aggregator
	Topics     txlog.Topics
	// TicketBookmark bounds the ticket-history stream; OMSBookmark is
	// shared by both OMS streams.
	TicketBookmark bookmark.Bookmark
	OMSBookmark    bookmark.Bookmark
	Outbound       Outbound

	counters driverCounters
}

type driverCounters struct {
	processed        int
	rebuilt          int
	republished      int
	ignored          int
	errored          int
	discardedHistory int
	discardedOMS     int
}

// Recover runs the pass start to finish. Per-order failures are
// counted and logged; they never abort the outer iteration, so the
// returned error is only a context cancellation.
func (d *Driver) Recover(ctx context.Context, c *cache.Cache) error {
	d.Aggregator.Each(func(orderID string, entries []txlog.Entry) {
		if ctx.Err() != nil {
			return
		}
		d.counters.processed++
		processedCounter.Inc()

		if err := d.processOrder(ctx, c, orderID, entries); err != nil {
			d.counters.errored++
			erroredCounter.Inc()
			log.WithFields(log.Fields{"orderID": orderID, "err": err}).
				Error("recovery of order failed; continuing")
		}
	})

	var tickets, orders = c.Sizes()
	log.WithFields(log.Fields{
		"processed":        d.counters.processed,
		"rebuilt":          d.counters.rebuilt,
		"republished":      d.counters.republished,
		"ignored":          d.counters.ignored,
		"errored":          d.counters.errored,
		"discardedHistory": d.counters.discardedHistory,
		"discardedOMS":     d.counters.discardedOMS,
		"cacheTickets":     tickets,
		"cacheOrders":      orders,
	}).Info("transaction-log recovery complete")

	return ctx.Err()
}

func (d *Driver) processOrder(ctx context.Context, c *cache.Cache, orderID string, entries []txlog.Entry) error {
	var rc = d.buildContext(orderID, entries)
	if rc == nil {
		// No surviving ticket history: nothing to reconcile against.
		d.counters.ignored++
		actionCounter.WithLabelValues(ActionIgnore.String()).Inc()
		log.WithField("orderID", orderID).Debug("order has no valid ticket history; skipping")
		return nil
	}

	var action = compare(rc)
	actionCounter.WithLabelValues(action.String()).Inc()

	switch action {
	case ActionIgnore:
		d.counters.ignored++
		return nil
	case ActionRebuild:
		d.counters.rebuilt++
		return d.executeRebuild(ctx, c, rc)
	case ActionRepublish:
		d.counters.republished++
		return d.executeRepublish(ctx, c, rc)
	default:
		return fmt.Errorf("unexpected recovery action %v", action)
	}
}

// buildContext splits, filters, and sorts the order's entries, and
// returns nil when no ticket-history entry survives the bookmark.
func (d *Driver) buildContext(orderID string, entries []txlog.Entry) *Context {
	var history, oms []txlog.Entry
	var latestToOMS, latestFromOMS *txlog.Entry

	for _, entry := range entries {
		switch entry.Source() {
		case d.Topics.TicketHistory:
			if d.TicketBookmark.Excludes(entry.Timestamp()) {
				d.counters.discardedHistory++
				discardedCounter.WithLabelValues("history").Inc()
				continue
			}
			history = append(history, entry)
		case d.Topics.RecallToOMS, d.Topics.OMSToRecall:
			if d.OMSBookmark.Excludes(entry.Timestamp()) {
				d.counters.discardedOMS++
				discardedCounter.WithLabelValues("oms").Inc()
				continue
			}
			oms = append(oms, entry)
		default:
			log.WithFields(log.Fields{"orderID": orderID, "source": entry.Source()}).
				Warn("skipping log entry from unrecognized topic")
		}
	}
	if len(history) == 0 {
		return nil
	}

	sortByTimestamp(history)
	sortByTimestamp(oms)

	for i := range oms {
		switch oms[i].Source() {
		case d.Topics.RecallToOMS:
			latestToOMS = &oms[i]
		case d.Topics.OMSToRecall:
			latestFromOMS = &oms[i]
		}
	}

	var latest = history[len(history)-1]
	var ticket, _ = latest.AsTicket()

	return &Context{
		OrderID:              orderID,
		Ticket:               ticket,
		LatestHistory:        latest,
		LatestToOMS:          latestToOMS,
		LatestFromOMS:        latestFromOMS,
		TicketHistoryEntries: history,
		OMSEntries:           oms,
		topics:               d.Topics,
	}
}

func sortByTimestamp(entries []txlog.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp().Before(entries[j].Timestamp())
	})
}

func (d *Driver) executeRebuild(ctx context.Context, c *cache.Cache, rc *Context) error {
	c.UpdateRecallTicket(rc.Ticket.ID, rc.Ticket)
	c.UpdateOrder(rc.OrderID, rc.RebuiltOrder())

	if rc.ForceTicketStateUpdate {
		log.WithFields(log.Fields{
			"orderID":     rc.OrderID,
			"orderState":  rc.RebuiltOrder().CurrentState,
			"priorTicket": rc.PriorTicketState,
		}).Error("ticket state forced to rebuilt order state")
	}

	if rc.NeedsDFDRequest {
		if d.Outbound == nil {
			log.WithField("orderID", rc.OrderID).
				Warn("no outbound client configured; skipping done-for-day request")
			return nil
		}
		if err := d.Outbound.PublishDoneForDay(ctx, rc.RebuiltOrder()); err != nil {
			// Logged and swallowed: operational follow-up is out of band.
			log.WithFields(log.Fields{"orderID": rc.OrderID, "err": err}).
				Error("publishing done-for-day request failed")
			d.counters.errored++
			erroredCounter.Inc()
			return nil
		}
		dfdPublishedCounter.Inc()
	}
	return nil
}

func (d *Driver) executeRepublish(ctx context.Context, c *cache.Cache, rc *Context) error {
	// The ticket carries the order's state by the time it's published:
	// downstream subscribers see the overwritten state.
	c.UpdateRecallTicket(rc.Ticket.ID, rc.Ticket)
	c.UpdateOrder(rc.OrderID, rc.RebuiltOrder())

	if d.Outbound == nil {
		log.WithField("orderID", rc.OrderID).
			Warn("no outbound client configured; skipping ticket republish")
		return nil
	}
	if err := d.Outbound.PublishRecallTicket(ctx, rc.Ticket); err != nil {
		log.WithFields(log.Fields{"orderID": rc.OrderID, "err": err}).
			Error("republishing recall ticket failed")
		d.counters.errored++
		erroredCounter.Inc()
	}
	return nil
}
