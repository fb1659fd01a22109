package service

import (
	"sync/atomic"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type MailJob struct {
	To   string
	Send func() error
}

// MailQueue runs best-effort mail (like the password-changed notice) on a
// small worker pool so handlers don't block on SMTP. Failures are logged,
// never propagated; anything that must fail the request is sent inline.
type MailQueue struct {
	jobs    chan *MailJob
	running atomic.Int32
	workers int
}

func NewMailQueue() *MailQueue {
	workers := viper.GetInt("smtp.workers")
	if workers <= 0 {
		workers = 2
	}

	return &MailQueue{
		jobs:    make(chan *MailJob, 64),
		workers: workers,
	}
}

func (q *MailQueue) StartWorkerPool() {
	for i := 0; i < q.workers; i++ {
		go q.worker()
	}
}

func (q *MailQueue) worker() {
	for job := range q.jobs {
		q.running.Add(1)

		if err := job.Send(); err != nil {
			zap.L().Error("Best-effort mail failed",
				zap.String("to", job.To),
				zap.Error(err))
		}

		q.running.Add(-1)
	}
}

// Enqueue never blocks. If the queue is full the job is dropped and logged,
// matching the best-effort contract.
func (q *MailQueue) Enqueue(job *MailJob) {
	select {
	case q.jobs <- job:
	default:
		zap.L().Warn("Mail queue full, dropping job", zap.String("to", job.To))
	}
}
