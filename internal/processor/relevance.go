package processor

import "strings"

// Relevance 关键词分级配置。
// Core 任意命中即相关；否则 Supporting 命中数 >= MinSupporting 且包含任一 Anchors 才相关。
// Supporting 为空时即为单层（扁平）规则。
type Relevance struct {
	Core          []string
	Supporting    []string
	Anchors       []string
	MinSupporting int
}

// RelevanceMatcher 由 Relevance 构建，可重复使用
type RelevanceMatcher struct {
	core          *keywordSet
	supporting    *keywordSet
	anchors       []string
	minSupporting int
}

func NewRelevanceMatcher(r Relevance) *RelevanceMatcher {
	anchors := make([]string, 0, len(r.Anchors))
	for _, a := range r.Anchors {
		if n := normalizeKeyword(a); n != "" {
			anchors = append(anchors, n)
		}
	}
	return &RelevanceMatcher{
		core:          newKeywordSet(r.Core),
		supporting:    newKeywordSet(r.Supporting),
		anchors:       anchors,
		minSupporting: r.MinSupporting,
	}
}

// IsRelated 判断文本是否与火灾事件相关，空白文本一律不相关
func (m *RelevanceMatcher) IsRelated(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	lower := strings.ToLower(text)

	if m.core.any(lower) {
		return true
	}

	if m.minSupporting <= 0 || len(m.supporting.keywords) == 0 {
		return false
	}
	if m.supporting.hits(lower) < m.minSupporting {
		return false
	}
	return containsAny(lower, m.anchors)
}

// AnyRelated 标题与摘要分别判断，任一相关即保留
func (m *RelevanceMatcher) AnyRelated(texts ...string) bool {
	for _, t := range texts {
		if m.IsRelated(t) {
			return true
		}
	}
	return false
}
