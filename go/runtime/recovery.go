// Package runtime wires the recall recovery service: configuration,
// bookmark acquisition, topic replay, and the cache initialization
// barrier, in dependency order.
package runtime

import (
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tradewind/recall/go/bookmark"
	"github.com/tradewind/recall/go/cache"
	"github.com/tradewind/recall/go/messaging"
	"github.com/tradewind/recall/go/recovery"
	"github.com/tradewind/recall/go/txlog"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.gazette.dev/core/broker/client"
	pb "go.gazette.dev/core/broker/protocol"
	mbp "go.gazette.dev/core/mainboilerplate"
	"go.gazette.dev/core/server"
	"go.gazette.dev/core/task"
)

// RecoveryConfig configures the recall-recovery application.
type RecoveryConfig struct {
	Recovery struct {
		mbp.ServiceConfig
		Timeout            time.Duration `long:"timeout" env:"TIMEOUT" default:"1s" description:"Upper bound on replay wait per topic stream"`
		TicketHistoryTopic string        `long:"ticket-history-topic" env:"TICKET_HISTORY_TOPIC" default:"RECALL/TICKET/HISTORY" description:"Topic of recall ticket history records"`
		RecallToOmsTopic   string        `long:"recall-to-oms-topic" env:"RECALL_TO_OMS_TOPIC" default:"RECALL/TO/OMS" description:"Topic of outbound order and execution-report records"`
		OmsToRecallTopic   string        `long:"oms-to-recall-topic" env:"OMS_TO_RECALL_TOPIC" default:"OMS/TO/RECALL" description:"Topic of inbound execution-report records"`
		RecallTicketTopic  string        `long:"recall-ticket-topic" env:"RECALL_TICKET_TOPIC" default:"RECALL/TICKET" description:"Publish target for reconciliation republishes"`
		DfdTopic           string        `long:"dfd-topic" env:"DFD_TOPIC" description:"Publish target for compensating done-for-day requests"`
		TicketBookmarkKey  string        `long:"ticket-bookmark-key" env:"TICKET_BOOKMARK_KEY" default:"/recall/bookmarks/ticket" description:"Etcd key of the ticket-history replay bookmark"`
		OmsBookmarkKey     string        `long:"oms-bookmark-key" env:"OMS_BOOKMARK_KEY" default:"/recall/bookmarks/oms" description:"Etcd key of the OMS replay bookmark"`
	} `group:"Recovery" namespace:"recovery" env-namespace:"RECOVERY"`

	Etcd        mbp.EtcdConfig        `group:"Etcd" namespace:"etcd" env-namespace:"ETCD"`
	Broker      mbp.ClientConfig      `group:"Broker" namespace:"broker" env-namespace:"BROKER"`
	Log         mbp.LogConfig         `group:"Logging" namespace:"log" env-namespace:"LOG"`
	Diagnostics mbp.DiagnosticsConfig `group:"Debug" namespace:"debug" env-namespace:"DEBUG"`
}

// RecoveryArgs collects the dialed collaborators of the service.
type RecoveryArgs struct {
	Config *RecoveryConfig
	// Server is a dual HTTP and gRPC server; the readiness endpoint is
	// registered against its mux.
	Server *server.Server
	// Tasks are service loops having the lifetime of the process.
	Tasks *task.Group
	// Journal client for replay reads and outbound appends.
	Journals pb.RoutedJournalClient
	// Etcd client supplying the replay bookmarks.
	Etcd *clientv3.Client
}

// StartRecoveryService replays the transaction log, initializes the
// state cache behind its barrier, and registers the readiness
// endpoint. It returns the initialized cache.
//
// Recovery runs synchronously here, before reader traffic is
// released: readers can never observe an empty cache.
func StartRecoveryService(args RecoveryArgs) (*cache.Cache, error) {
	var ctx = args.Tasks.Context()
	var cfg = args.Config.Recovery

	var topics = txlog.Topics{
		TicketHistory: txlog.Source(cfg.TicketHistoryTopic),
		RecallToOMS:   txlog.Source(cfg.RecallToOmsTopic),
		OMSToRecall:   txlog.Source(cfg.OmsToRecallTopic),
	}

	var store = bookmark.EtcdStore{Client: args.Etcd}
	ticketBookmark, err := bookmark.FetchParsed(ctx, store, cfg.TicketBookmarkKey)
	if err != nil {
		return nil, fmt.Errorf("acquiring ticket bookmark: %w", err)
	}
	omsBookmark, err := bookmark.FetchParsed(ctx, store, cfg.OmsBookmarkKey)
	if err != nil {
		return nil, fmt.Errorf("acquiring OMS bookmark: %w", err)
	}
	log.WithFields(log.Fields{
		"ticketBookmark": ticketBookmark,
		"omsBookmark":    omsBookmark,
	}).Info("acquired replay bookmarks")

	var aggregator = txlog.NewAggregator()
	var subscriber = &messaging.Subscriber{Topics: topics, Aggregator: aggregator}

	for _, source := range []txlog.Source{topics.TicketHistory, topics.RecallToOMS, topics.OMSToRecall} {
		err = messaging.ReplayJournal(ctx, args.Journals, pb.Journal(source), cfg.Timeout,
			func(frame []byte, arrival time.Time) error {
				subscriber.Consume(source, frame, arrival)
				return nil
			})
		if err != nil {
			return nil, fmt.Errorf("replaying topic %s: %w", source, err)
		}
	}
	log.WithField("orders", aggregator.Len()).Info("transaction-log replay aggregated")

	var outbound = &messaging.Client{
		Appender:          messaging.Appender{AJC: client.NewAppendService(ctx, args.Journals)},
		RecallTicketTopic: pb.Journal(cfg.RecallTicketTopic),
		DFDTopic:          pb.Journal(cfg.DfdTopic),
	}
	var driver = &recovery.Driver{
		Aggregator:     aggregator,
		Topics:         topics,
		TicketBookmark: ticketBookmark,
		OMSBookmark:    omsBookmark,
		Outbound:       outbound,
	}

	var c = cache.New(driver)
	if err = (cache.ReadySignal{Cache: c}).Ready(ctx); err != nil {
		return nil, fmt.Errorf("initializing recall cache: %w", err)
	}

	args.Server.HTTPMux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		if c.IsInitialized() {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})
	return c, nil
}
