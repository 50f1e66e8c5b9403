package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
)

const (
	scanSchedule  = "@every 1m"
	driftSchedule = "@every 15m"
)

// serve runs the scheduled triggers until SIGINT/SIGTERM: an incremental
// scan every minute and the windowed drift scan every 15 minutes. Each run
// is an independent unit of work; overlapping runs are tolerated because
// every mutation is idempotent against the tracking store.
func serve(ctx context.Context, r *Reconciler) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	scheduler := cron.New()

	scheduler.AddFunc(scanSchedule, func() {
		reportResult("scan", r.ManualScanNextRow(ctx))
	})
	scheduler.AddFunc(driftSchedule, func() {
		reportResult("drift", r.FullDriftScan(ctx, false))
	})

	printVerbosely(0, "🗓 sheetcal daemon started (scan %s, drift %s)\n", scanSchedule, driftSchedule)
	scheduler.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	printVerbosely(0, "🗓 shutting down\n")
	cancel()
	<-scheduler.Stop().Done()
}

func reportResult(operation string, result *Result) {
	if result.Success {
		printVerbosely(1, "✅ %s: %s\n", operation, result.Message)
	} else {
		printVerbosely(0, "❌ %s: %s\n", operation, result.Message)
	}
}
