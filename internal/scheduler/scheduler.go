// Package scheduler は通知スイープを一定間隔で実行する。
package scheduler

import (
	"context"
	"time"

	"github.com/IgesAI/AMautomation/internal/notify"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// スイープ本体（notify.Notifier）
type Checker interface {
	RunChecks(ctx context.Context) (notify.CheckResult, error)
}

type Scheduler struct {
	checker  Checker
	interval time.Duration
	log      *logrus.Logger
}

func New(checker Checker, interval time.Duration, log *logrus.Logger) *Scheduler {
	return &Scheduler{checker: checker, interval: interval, log: log}
}

// Run は起動直後に1回、その後 interval ごとにスイープする。ctx が終わると止まる。
// 前回が終わっていなければ次の回は飛ばす。
func (s *Scheduler) Run(ctx context.Context) error {
	sch, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, "create scheduler")
	}

	_, err = sch.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.sweep(ctx) }),
		gocron.WithName("notification-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return errors.Wrap(err, "register sweep job")
	}

	s.log.WithField("interval", s.interval.String()).Info("scheduler started")
	sch.Start()

	<-ctx.Done()

	s.log.Info("scheduler stopping")
	return sch.Shutdown()
}

func (s *Scheduler) sweep(ctx context.Context) {
	res, err := s.checker.RunChecks(ctx)
	if err != nil {
		s.log.WithError(err).Error("scheduled sweep failed")
		return
	}
	if res.Skipped {
		return
	}
	s.log.WithFields(logrus.Fields{
		"expiring_processed": res.ExpiringSoon.Processed,
		"low_processed":      res.LowStock.Processed,
		"failed":             res.ExpiringSoon.Failed + res.LowStock.Failed,
	}).Info("scheduled sweep finished")
}
