package pipeline

import (
	"context"

	"github.com/LJTian/ReliefHub/internal/processor"
	"go.uber.org/zap"
)

// Finder 判重所需的存储能力
type Finder interface {
	Exists(ctx context.Context, key processor.DedupeKey, value string) (bool, error)
}

// Guard 写入前检查是否已有相同标题（或链接）的公告。
// 查询失败按“不存在”处理（fail-open）。
// 检查与写入是两次独立请求，并发写入方仍可能产生重复。
type Guard struct {
	finder  Finder
	keys    []processor.DedupeKey
	log     *zap.Logger
	onError func(err error)
}

func NewGuard(finder Finder, keys []processor.DedupeKey, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{finder: finder, keys: keys, log: log}
}

// lookupOutcome 单个 key 的查询结果，错误在 Exists 中统一折叠
type lookupOutcome struct {
	found bool
	err   error
}

func (g *Guard) lookup(ctx context.Context, key processor.DedupeKey, value string) lookupOutcome {
	found, err := g.finder.Exists(ctx, key, value)
	return lookupOutcome{found: found, err: err}
}

// Exists 任一 key 命中即视为重复
func (g *Guard) Exists(ctx context.Context, title, url string) bool {
	values := map[processor.DedupeKey]string{
		processor.KeyTitle: title,
		processor.KeyURL:   url,
	}
	for _, key := range g.keys {
		out := g.lookup(ctx, key, values[key])
		if out.err != nil {
			g.log.Warn("dedupe lookup failed, treating as new",
				zap.String("key", string(key)), zap.String("title", title), zap.Error(out.err))
			if g.onError != nil {
				g.onError(out.err)
			}
			return false
		}
		if out.found {
			return true
		}
	}
	return false
}
