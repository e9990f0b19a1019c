package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/coldspark/outreach/pkg/dispatch"
	"github.com/coldspark/outreach/pkg/warmup"
)

// CronManager manages scheduled jobs
type CronManager struct {
	cron       *cron.Cron
	dispatcher *dispatch.Dispatcher
	warmup     *warmup.Controller
	logger     *log.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(dispatcher *dispatch.Dispatcher, controller *warmup.Controller, logger *log.Logger) *CronManager {
	if logger == nil {
		logger = log.Default()
	}

	return &CronManager{
		cron:       cron.New(),
		dispatcher: dispatcher,
		warmup:     controller,
		logger:     logger,
	}
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs(dispatchEvery, warmupEvery time.Duration) error {
	cm.logger.Println("Setting up cron jobs...")

	// Campaign dispatch: one batch per active schedule each tick
	_, err := cm.cron.AddFunc(fmt.Sprintf("@every %s", dispatchEvery), func() {
		cm.logger.Println("🕐 Running campaign dispatch job...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		summary, err := cm.dispatcher.Run(ctx)
		if err != nil {
			cm.logger.Printf("❌ Dispatch run failed: %v", err)
			return
		}

		if len(summary.Processed) == 0 {
			cm.logger.Println("✅ Nothing to dispatch")
			return
		}

		cm.logger.Printf("✅ Dispatch complete: %d sent, %d failed, %d skipped across %d schedules",
			summary.Sent, summary.Failed, summary.Skipped, summary.Schedules)
	})
	if err != nil {
		return err
	}

	// Warm-up pacing: at most one email per due account each tick
	_, err = cm.cron.AddFunc(fmt.Sprintf("@every %s", warmupEvery), func() {
		cm.logger.Println("🕐 Running warmup job...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		summary, err := cm.warmup.Run(ctx)
		if err != nil {
			cm.logger.Printf("❌ Warmup run failed: %v", err)
			return
		}

		cm.logger.Printf("✅ Warmup complete: %d sent, %d skipped, %d failed of %d accounts",
			summary.Sent, summary.Skipped, summary.Failed, summary.Accounts)
	})
	if err != nil {
		return err
	}

	cm.logger.Println("✅ Cron jobs configured successfully")
	cm.logger.Printf("  - Every %s: campaign dispatch", dispatchEvery)
	cm.logger.Printf("  - Every %s: account warmup", warmupEvery)

	return nil
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.logger.Println("🚀 Starting cron scheduler...")
	cm.cron.Start()
}

// Stop stops the cron scheduler
func (cm *CronManager) Stop() {
	cm.logger.Println("🛑 Stopping cron scheduler...")
	cm.cron.Stop()
}
