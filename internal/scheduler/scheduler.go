package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/LJTian/ReliefHub/internal/pipeline"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner 调度器依赖的执行入口，由 pipeline.Runner 实现
type Runner interface {
	RunAll(ctx context.Context) []pipeline.Result
	RunSource(ctx context.Context, name string) (pipeline.Result, error)
}

// Job 一个数据源及其采集周期
type Job struct {
	Source   string
	CronSpec string
}

type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	log    *zap.Logger
	// StartupDelay 启动后首轮采集的延迟，0 表示不补跑
	StartupDelay time.Duration
	// JobTimeout 单次任务的超时
	JobTimeout time.Duration
}

// New 为每个数据源注册独立的 cron 任务，时间按 loc 解释
func New(jobs []Job, runner Runner, loc *time.Location, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{log: log.Sugar()}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	s := &Scheduler{
		cron:       c,
		runner:     runner,
		log:        log,
		JobTimeout: 10 * time.Minute,
	}

	for _, j := range jobs {
		name := j.Source
		if _, err := c.AddFunc(j.CronSpec, func() { s.runJob(name) }); err != nil {
			return nil, fmt.Errorf("add cron job %s (%q): %w", name, j.CronSpec, err)
		}
		log.Info("cron job registered", zap.String("source", name), zap.String("spec", j.CronSpec), zap.String("tz", loc.String()))
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 服务重启后补跑一轮，避免错过整点
	if s.StartupDelay > 0 {
		time.AfterFunc(s.StartupDelay, func() {
			go s.RunOnce()
		})
	}
}

// Stop 停止调度并等待运行中的任务结束
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Entries 已注册任务数量
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// RunOnce 对外暴露的单次执行入口，依次运行全部数据源
func (s *Scheduler) RunOnce() []pipeline.Result {
	ctx, cancel := context.WithTimeout(context.Background(), s.JobTimeout)
	defer cancel()

	s.log.Info("start collect job (all sources)")
	results := s.runner.RunAll(ctx)
	for _, res := range results {
		s.logResult(res)
	}
	s.log.Info("collect job done (all sources)")
	return results
}

func (s *Scheduler) runJob(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.JobTimeout)
	defer cancel()

	res, err := s.runner.RunSource(ctx, name)
	if err != nil {
		s.log.Error("scheduled run failed", zap.String("source", name), zap.Error(err))
		return
	}
	s.logResult(res)
}

func (s *Scheduler) logResult(res pipeline.Result) {
	if !res.Success {
		s.log.Error("source run failed", zap.String("source", res.Source), zap.String("error", res.Error))
		return
	}
	s.log.Info("source run done",
		zap.String("source", res.Source), zap.Int("added", res.Added), zap.Int("total", res.Total))
}

// cronLogger 把 cron 的日志接到 zap
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
