package queue

import (
	"encoding/json"
	"time"

	"library-backend/internal/config"
	"library-backend/internal/shared"
	"library-backend/pkg/logger"

	"github.com/hibiken/asynq"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redisOpt asynq.RedisClientOpt, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

// RegisterJobs registers every periodic job
func (s *Scheduler) RegisterJobs() error {
	return s.registerScanOverdueLoansJob()
}

// ================================================
// JOB: Scan Overdue Loans (mặc định mỗi giờ)
// ================================================
func (s *Scheduler) registerScanOverdueLoansJob() error {
	payload, err := json.Marshal(shared.OverdueScanPayload{
		Limit: s.jobConfig.OverdueScanLimit,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeScanOverdueLoans, payload)

	_, err = s.scheduler.Register(
		s.jobConfig.OverdueScanCron,
		task,
		asynq.Queue(shared.QueueMaintenance),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register ScanOverdueLoans job", err)
		return err
	}

	logger.Info("✓ Registered ScanOverdueLoans", map[string]interface{}{
		"cron": s.jobConfig.OverdueScanCron,
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
