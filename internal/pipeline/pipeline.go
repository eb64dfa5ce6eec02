package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LJTian/ReliefHub/internal/collector"
	"github.com/LJTian/ReliefHub/internal/config"
	"github.com/LJTian/ReliefHub/internal/metrics"
	"github.com/LJTian/ReliefHub/internal/processor"
	"github.com/LJTian/ReliefHub/internal/storage"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var errEmptyContent = errors.New("empty article content")

const msgNoRelevant = "沒有找到相關的新聞"

// Store 流水线需要的存储能力，便于测试替换
type Store interface {
	Finder
	Create(ctx context.Context, a *storage.Announcement) error
}

// Result 单个数据源一次运行的结果
type Result struct {
	Source  string `json:"source"`
	Label   string `json:"label"`
	Success bool   `json:"success"`
	Added   int    `json:"added"`
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// candidate 通过相关性过滤的条目
type candidate struct {
	Title       string
	URL         string
	Description string
	// Date 归一化日期，如 2025年11月26日
	Date string
	Item collector.FeedItem
}

// Pipeline 驱动一个数据源：拉取 → 过滤 → 判重 → 正文 → 紧急判定 → 入库，严格串行
type Pipeline struct {
	rules     processor.Ruleset
	relevance *processor.RelevanceMatcher
	feed      collector.FeedFetcher
	content   collector.ContentFetcher
	store     Store
	guard     *Guard

	log     *zap.Logger
	metrics *metrics.Pipeline
	now     func() time.Time
	delay   time.Duration
}

type Option func(*Pipeline)

// WithDelay 每条之间的固定间隔，默认 1 秒
func WithDelay(d time.Duration) Option {
	return func(p *Pipeline) { p.delay = d }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

func WithMetrics(m *metrics.Pipeline) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func New(rules processor.Ruleset, feed collector.FeedFetcher, content collector.ContentFetcher, store Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		rules:     rules,
		relevance: processor.NewRelevanceMatcher(rules.Relevance),
		feed:      feed,
		content:   content,
		store:     store,
		log:       zap.NewNop(),
		now:       config.Now,
		delay:     time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = metrics.NewPipeline(nil)
	}
	p.log = p.log.With(zap.String("source", rules.Name))

	p.guard = NewGuard(store, rules.DedupeKeys, p.log)
	p.guard.onError = func(error) {
		p.metrics.Errors.WithLabelValues(rules.Name, "dedupe").Inc()
	}
	return p
}

func (p *Pipeline) Name() string  { return p.rules.Name }
func (p *Pipeline) Label() string { return p.rules.Label }

// Run 执行一轮，返回结构化结果；feed 拉取失败时 Success 为 false
func (p *Pipeline) Run(ctx context.Context) Result {
	res := Result{Source: p.rules.Name, Label: p.rules.Label}
	p.log.Info("fetching feed", zap.String("url", p.rules.FeedURL))

	items, err := p.feed.Fetch(ctx, p.rules.FeedURL)
	if err != nil {
		if !errors.Is(err, collector.ErrMalformedFeed) {
			p.log.Error("fetch feed failed", zap.Error(err))
			p.metrics.Errors.WithLabelValues(p.rules.Name, "feed").Inc()
			p.metrics.Runs.WithLabelValues(p.rules.Name, "failure").Inc()
			res.Error = err.Error()
			return res
		}
		// 格式异常只告警，继续处理已恢复的条目
		p.log.Warn("feed parse warning", zap.Error(err), zap.Int("recovered", len(items)))
		p.metrics.Errors.WithLabelValues(p.rules.Name, "feed_parse").Inc()
	}
	p.metrics.ItemsFetched.WithLabelValues(p.rules.Name).Add(float64(len(items)))

	candidates := p.filter(items)
	res.Total = len(candidates)
	if len(candidates) == 0 {
		p.log.Info("no relevant news found")
		p.metrics.Runs.WithLabelValues(p.rules.Name, "success").Inc()
		res.Success = true
		res.Message = msgNoRelevant
		return res
	}

	p.log.Info("processing relevant items", zap.Int("total", len(candidates)))
	for _, c := range candidates {
		if p.process(ctx, c) {
			res.Added++
		}
		if err := p.wait(ctx); err != nil {
			p.metrics.Runs.WithLabelValues(p.rules.Name, "failure").Inc()
			res.Error = fmt.Sprintf("interrupted: %v", err)
			return res
		}
	}

	res.Success = true
	res.Message = fmt.Sprintf("處理完成: 新增 %d 條公告，共處理 %d 條新聞", res.Added, res.Total)
	p.metrics.Runs.WithLabelValues(p.rules.Name, "success").Inc()
	p.log.Info("run finished", zap.Int("added", res.Added), zap.Int("total", res.Total))
	return res
}

// filter 标题或摘要任一相关即保留，并计算归一化日期
func (p *Pipeline) filter(items []collector.FeedItem) []candidate {
	out := make([]candidate, 0, len(items))
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		url := strings.TrimSpace(it.Link)
		if url == "" && p.rules.GUIDAsLink {
			url = strings.TrimSpace(it.GUID)
		}
		if title == "" || url == "" {
			continue
		}

		if !p.relevance.AnyRelated(title, it.Description) {
			p.log.Debug("skip unrelated item", zap.String("title", title))
			continue
		}

		desc := strings.TrimSpace(it.Description)
		if p.rules.CleanDescription {
			desc = collector.CleanHTML(desc)
		}

		p.log.Info("found relevant item", zap.String("title", title))
		out = append(out, candidate{
			Title:       title,
			URL:         url,
			Description: desc,
			Date:        processor.NormalizeDate(processor.RawDate{Parsed: it.PublishedParsed, Text: it.PublishedText}, p.now()),
			Item:        it,
		})
	}
	p.metrics.ItemsRelevant.WithLabelValues(p.rules.Name).Add(float64(len(out)))
	return out
}

// process 处理单条，返回是否新增；单条失败不影响后续条目
func (p *Pipeline) process(ctx context.Context, c candidate) (added bool) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("process item panicked", zap.String("title", c.Title), zap.Any("panic", r))
			p.metrics.Errors.WithLabelValues(p.rules.Name, "item").Inc()
			added = false
		}
	}()

	if p.guard.Exists(ctx, c.Title, c.URL) {
		p.log.Info("skip existing announcement", zap.String("title", c.Title))
		p.metrics.Duplicates.WithLabelValues(p.rules.Name).Inc()
		return false
	}

	content := p.resolveContent(ctx, c)
	urgent := processor.IsUrgent(p.relevance, p.rules.Urgency, c.Title, content, c.Description)
	tag := p.rules.Tag(urgent)

	a := &storage.Announcement{
		Title:      c.Title,
		Content:    content,
		Source:     p.rules.Name,
		SourceName: p.rules.SourceName,
		URL:        c.URL,
		IsUrgent:   urgent,
		Tag:        tag,
		Category:   processor.Categorize(c.Title, content),
		Timestamp:  announcementTimestamp(c.Date),
		Meta:       itemMeta(c),
	}

	if err := p.store.Create(ctx, a); err != nil {
		p.log.Error("add announcement failed", zap.String("title", c.Title), zap.Error(err))
		p.metrics.Errors.WithLabelValues(p.rules.Name, "insert").Inc()
		return false
	}

	p.log.Info("announcement added", zap.String("title", c.Title), zap.String("tag", tag), zap.Bool("urgent", urgent))
	p.metrics.Added.WithLabelValues(p.rules.Name, tag).Inc()
	return true
}

// announcementTimestamp 归一化日期还原失败时返回 nil，由数据库时钟填充
func announcementTimestamp(date string) *time.Time {
	t, ok := processor.ParseNormalizedDate(date)
	if !ok {
		return nil
	}
	return &t
}

func itemMeta(c candidate) datatypes.JSONMap {
	meta := datatypes.JSONMap{"date": c.Date}
	if c.Item.GUID != "" {
		meta["guid"] = c.Item.GUID
	}
	if c.Item.PublishedText != "" {
		meta["published"] = c.Item.PublishedText
	}
	if len(c.Item.Categories) > 0 {
		meta["categories"] = c.Item.Categories
	}
	return meta
}

func (p *Pipeline) wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
