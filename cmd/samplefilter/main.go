// Command samplefilter is a demonstration OpenSMTPD filter built on the
// osmtpd-filter engine. It rejects HELO/EHLO hostnames and MAIL
// FROM/RCPT TO domains found in a configured blocklist, and tags
// surviving messages with a header during the DATA phase.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/infodancer/osmtpd-filter/filter"
	"github.com/infodancer/osmtpd-filter/internal/logging"
	"github.com/infodancer/osmtpd-filter/internal/metrics"
	"github.com/infodancer/osmtpd-filter/internal/samplefilterconfig"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	flags := samplefilterconfig.ParseFlags()

	cfg, err := samplefilterconfig.LoadWithFlags(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel)
	blocked := newBlocklist(cfg.Blocklist)

	var collector filter.Collector = filter.NoopCollector{}
	var metricsServer *metrics.HTTPServer
	if cfg.Metrics.Enabled {
		pc := metrics.NewPrometheusCollector(prometheus.DefaultRegisterer)
		collector = pc
		metricsServer = metrics.NewHTTPServer(cfg.Metrics.Address, prometheus.DefaultGatherer)
	}

	engine := filter.NewEngine(os.Stdin, os.Stdout,
		filter.WithLogger(logger),
		filter.WithCollector(collector),
	)

	engine.Need(filter.NeedRDNS | filter.NeedMailFrom)

	engine.LocalSession(
		func(sess *filter.Session) any {
			logger.Debug("session opened", "reqid", sess.ReqID)
			return nil
		},
		func(sess *filter.Session, local any) {
			logger.Debug("session closed", "reqid", sess.ReqID, "remaining", len(engine.Sessions()))
		},
	)

	engine.LocalMessage(
		func(sess *filter.Session) any { return newMessageState() },
		func(sess *filter.Session, local any) {},
	)

	if err := engine.RegisterFilterHelo(func(sess *filter.Session, hostname string) {
		if blocked.blocks(hostname) {
			logger.Info("rejected blocklisted helo", "reqid", sess.ReqID, "hostname", hostname, "rdns", sess.RDNS)
			if err := engine.Reject(sess, 530, "hostname rejected"); err != nil {
				logger.Error("reject failed", "error", err)
			}
			return
		}
		if err := engine.Proceed(sess); err != nil {
			logger.Error("proceed failed", "error", err)
		}
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error registering helo filter: %v\n", err)
		os.Exit(1)
	}

	if err := engine.RegisterFilterEhlo(func(sess *filter.Session, hostname string) {
		if blocked.blocks(hostname) {
			logger.Info("rejected blocklisted ehlo", "reqid", sess.ReqID, "hostname", hostname)
			if err := engine.Reject(sess, 530, "hostname rejected"); err != nil {
				logger.Error("reject failed", "error", err)
			}
			return
		}
		if err := engine.Proceed(sess); err != nil {
			logger.Error("proceed failed", "error", err)
		}
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error registering ehlo filter: %v\n", err)
		os.Exit(1)
	}

	if err := engine.RegisterFilterMailFrom(func(sess *filter.Session, address string) {
		if domain, ok := domainOf(address); ok && blocked.blocks(domain) {
			logger.Info("rejected blocklisted sender", "reqid", sess.ReqID, "address", address)
			if err := engine.Reject(sess, 550, "sender domain rejected"); err != nil {
				logger.Error("reject failed", "error", err)
			}
			return
		}
		if err := engine.Proceed(sess); err != nil {
			logger.Error("proceed failed", "error", err)
		}
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error registering mail-from filter: %v\n", err)
		os.Exit(1)
	}

	if err := engine.RegisterFilterRcptTo(func(sess *filter.Session, address string) {
		if domain, ok := domainOf(address); ok && blocked.blocks(domain) {
			logger.Info("rejected blocklisted recipient", "reqid", sess.ReqID, "address", address)
			if err := engine.Reject(sess, 550, "recipient domain rejected"); err != nil {
				logger.Error("reject failed", "error", err)
			}
			return
		}
		if err := engine.Proceed(sess); err != nil {
			logger.Error("proceed failed", "error", err)
		}
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error registering rcpt-to filter: %v\n", err)
		os.Exit(1)
	}

	if err := engine.RegisterFilterDataLine(func(sess *filter.Session, line string) {
		ms, _ := sess.Message().(*messageState)
		var outLines []string
		if ms == nil {
			outLines = []string{line}
		} else {
			outLines = filterDataLine(ms, cfg.FilteredHeader, line)
		}
		for _, out := range outLines {
			if err := engine.DataLine(sess, out); err != nil {
				logger.Error("dataline failed", "error", err)
				return
			}
		}
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error registering data-line filter: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("metrics server error", "error", err)
			}
		}()
		logger.Info("metrics server started", "address", cfg.Metrics.Address)
	}

	logger.Info("starting samplefilter", "blocklist_size", len(cfg.Blocklist))

	if err := engine.Run(ctx); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "engine error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("samplefilter stopped")
}
