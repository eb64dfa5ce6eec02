// Package metrics 采集流水线的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reliefhub"

// Pipeline 流水线各阶段的计数器
type Pipeline struct {
	ItemsFetched  *prometheus.CounterVec
	ItemsRelevant *prometheus.CounterVec
	Duplicates    *prometheus.CounterVec
	Added         *prometheus.CounterVec
	Errors        *prometheus.CounterVec
	Runs          *prometheus.CounterVec
}

// NewPipeline 创建并注册到 reg；reg 为 nil 时不注册（测试用）
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	m := &Pipeline{
		ItemsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_items_fetched_total",
			Help:      "Feed entries returned by the transport.",
		}, []string{"source"}),
		ItemsRelevant: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_items_relevant_total",
			Help:      "Feed entries that passed the relevance filter.",
		}, []string{"source"}),
		Duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "announcements_duplicate_total",
			Help:      "Relevant entries skipped because a matching announcement exists.",
		}, []string{"source"}),
		Added: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "announcements_added_total",
			Help:      "Announcements persisted.",
		}, []string{"source", "tag"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_errors_total",
			Help:      "Errors by stage; most are degraded to fallbacks.",
		}, []string{"source", "stage"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"source", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.ItemsFetched, m.ItemsRelevant, m.Duplicates, m.Added, m.Errors, m.Runs)
	}
	return m
}
