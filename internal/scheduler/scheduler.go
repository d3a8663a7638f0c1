package scheduler

import (
	"context"
	"fmt"
	"time"

	"stockpulse/internal/logger"

	"github.com/robfig/cron/v3"
)

// CronScheduler 基于 cron 表达式（含秒字段）触发任务，任务 panic 会被恢复并记录。
type CronScheduler struct {
	cron *cron.Cron
	loc  *time.Location
}

func NewCronScheduler(loc *time.Location) *CronScheduler {
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)
	return &CronScheduler{cron: c, loc: loc}
}

// Register 注册任务，name 仅用于日志。
func (s *CronScheduler) Register(name, spec string, task func()) error {
	if task == nil {
		return fmt.Errorf("scheduler: task %s is nil", name)
	}
	if _, err := s.cron.AddFunc(spec, func() {
		logger.Infof("[scheduler] run %s", name)
		task()
	}); err != nil {
		return fmt.Errorf("register %s (%q): %w", name, spec, err)
	}
	logger.Infof("[scheduler] registered %s spec=%q tz=%s", name, spec, s.loc)
	return nil
}

// Next 返回最近一次触发时间，没有任务时为零值。
func (s *CronScheduler) Next() time.Time {
	var next time.Time
	for _, e := range s.cron.Entries() {
		if next.IsZero() || e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}

func (s *CronScheduler) Start() {
	s.cron.Start()
	logger.Infof("[scheduler] started")
}

// Stop 停止调度并等待运行中的任务结束，或直到 ctx 取消。
func (s *CronScheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		logger.Infof("[scheduler] stopped")
	case <-ctx.Done():
		logger.Warnf("[scheduler] stop timed out: %v", ctx.Err())
	}
}

// ValidateSpec 校验 cron 表达式。
func ValidateSpec(spec string) error {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	_, err := parser.Parse(spec)
	return err
}

// cronLogger 适配 cron.Logger。
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debugf("[scheduler] %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Errorf("[scheduler] %s: %v %v", msg, err, keysAndValues)
}
