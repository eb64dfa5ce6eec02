// Package app 组装两个命令共用的依赖
package app

import (
	"time"

	"github.com/LJTian/ReliefHub/internal/collector"
	"github.com/LJTian/ReliefHub/internal/config"
	"github.com/LJTian/ReliefHub/internal/metrics"
	"github.com/LJTian/ReliefHub/internal/pipeline"
	"github.com/LJTian/ReliefHub/internal/processor"
	"go.uber.org/zap"
)

// Rulesets 内置数据源，顺序即运行顺序
func Rulesets() []processor.Ruleset {
	return []processor.Ruleset{processor.GovRules(), processor.RTHKRules()}
}

// NewRunner 为每个数据源创建流水线；only 非空时只保留该名称
func NewRunner(cfg *config.Config, store pipeline.Store, m *metrics.Pipeline, log *zap.Logger, only string) *pipeline.Runner {
	feed := collector.NewRSSFetcher()
	content := collector.NewPageExtractor()

	var sources []pipeline.Source
	for _, rules := range Rulesets() {
		if only != "" && rules.Name != only {
			continue
		}
		sources = append(sources, pipeline.New(rules, feed, content, store,
			pipeline.WithDelay(cfg.ItemDelay),
			pipeline.WithLogger(log),
			pipeline.WithMetrics(m),
		))
	}
	return pipeline.NewRunner(log, sources...)
}

// Location 解析 cron 时区，失败时退回香港时区
func Location(name string, log *zap.Logger) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn("load cron timezone failed, using Asia/Hong_Kong", zap.String("tz", name), zap.Error(err))
		return processor.HongKong()
	}
	return loc
}
