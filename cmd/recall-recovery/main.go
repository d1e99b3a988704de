package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"
	"github.com/tradewind/recall/go/runtime"
	pb "go.gazette.dev/core/broker/protocol"
	mbp "go.gazette.dev/core/mainboilerplate"
	"go.gazette.dev/core/server"
	"go.gazette.dev/core/task"
)

const iniFilename = "recall.ini"

// Config is the top-level configuration object of the recall recovery
// service.
var Config = new(runtime.RecoveryConfig)

type cmdServe struct{}

func (cmdServe) Execute(_ []string) error {
	defer mbp.InitDiagnosticsAndRecover(Config.Diagnostics)()
	mbp.InitLog(Config.Log)

	log.WithFields(log.Fields{
		"config":    Config,
		"version":   mbp.Version,
		"buildDate": mbp.BuildDate,
	}).Info("recall-recovery configuration")

	pb.RegisterGRPCDispatcher(Config.Recovery.Zone)

	// Bind our server listener, grabbing a random available port if Port is zero.
	var srv, err = server.New("", Config.Recovery.Host, Config.Recovery.Port,
		nil, nil, Config.Recovery.MaxGRPCRecvSize, nil)
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	var args = runtime.RecoveryArgs{
		Config:   Config,
		Server:   srv,
		Tasks:    task.NewGroup(context.Background()),
		Journals: Config.Broker.MustRoutedJournalClient(context.Background()),
		Etcd:     Config.Etcd.MustDial(),
	}
	if _, err = runtime.StartRecoveryService(args); err != nil {
		return fmt.Errorf("starting recovery service: %w", err)
	}
	args.Server.QueueTasks(args.Tasks)

	log.WithFields(log.Fields{
		"zone":     Config.Recovery.Zone,
		"endpoint": Config.Recovery.BuildProcessSpec(srv).Endpoint,
	}).Info("starting recall-recovery")

	// Install signal handler & start server tasks.
	var signalCh = make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGTERM, syscall.SIGINT)

	args.Tasks.Queue("watch signalCh", func() error {
		select {
		case sig := <-signalCh:
			log.WithField("signal", sig).Info("caught signal")

			args.Tasks.Cancel()
			srv.BoundedGracefulStop()
			return nil

		case <-args.Tasks.Context().Done():
			return nil
		}
	})
	args.Tasks.GoRun()

	// Block until all tasks complete.
	if err = args.Tasks.Wait(); err != nil {
		return fmt.Errorf("task failed: %w", err)
	}

	log.Info("goodbye")
	return nil
}

func main() {
	var parser = flags.NewParser(Config, flags.Default)

	_, _ = parser.AddCommand("serve", "Serve as recall recovery service", `
Serve the recall recovery service with the provided configuration, until
signaled to exit (via SIGTERM).
`, &cmdServe{})

	mbp.AddPrintConfigCmd(parser, iniFilename)
	mbp.MustParseConfig(parser, iniFilename)
}
