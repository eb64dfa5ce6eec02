package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

var ErrUnknownSource = errors.New("unknown source")

// Source 可被 Runner 调度的数据源
type Source interface {
	Name() string
	Label() string
	Run(ctx context.Context) Result
}

// Runner 依次运行各数据源，一个源失败不影响其它源。
// 同一时刻只有一轮在运行，定时任务与手动触发共用。
type Runner struct {
	mu      sync.Mutex
	sources []Source
	log     *zap.Logger
}

func NewRunner(log *zap.Logger, sources ...Source) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{sources: sources, log: log}
}

// Sources 返回已注册的数据源名称，保持注册顺序
func (r *Runner) Sources() []string {
	names := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		names = append(names, s.Name())
	}
	return names
}

// RunAll 按注册顺序逐个运行
func (r *Runner) RunAll(ctx context.Context) []Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]Result, 0, len(r.sources))
	for _, s := range r.sources {
		results = append(results, r.runOne(ctx, s))
	}
	return results
}

// RunSource 只运行指定名称的数据源
func (r *Runner) RunSource(ctx context.Context, name string) (Result, error) {
	for _, s := range r.sources {
		if s.Name() != name {
			continue
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.runOne(ctx, s), nil
	}
	return Result{}, fmt.Errorf("%w: %q", ErrUnknownSource, name)
}

func (r *Runner) runOne(ctx context.Context, s Source) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("source panicked", zap.String("source", s.Name()), zap.Any("panic", p))
			res = Result{Source: s.Name(), Label: s.Label(), Error: fmt.Sprintf("panic: %v", p)}
		}
	}()

	r.log.Info("start source", zap.String("source", s.Name()))
	res = s.Run(ctx)
	if res.Source == "" {
		res.Source = s.Name()
	}
	if res.Label == "" {
		res.Label = s.Label()
	}
	return res
}

// PrintSummary 输出人类可读的执行总结
func PrintSummary(w io.Writer, results []Result) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "執行總結")
	for _, res := range results {
		if res.Success {
			fmt.Fprintf(w, "✅ %s: %s\n", res.Label, res.Message)
			continue
		}
		fmt.Fprintf(w, "❌ %s: %s\n", res.Label, res.Error)
	}
}

// ExitCode 全部成功返回 0，否则 1
func ExitCode(results []Result) int {
	for _, res := range results {
		if !res.Success {
			return 1
		}
	}
	return 0
}
