package processor

import (
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// keywordSet 基于 Aho-Corasick 的子串匹配，大小写不敏感
type keywordSet struct {
	mu       sync.Mutex
	matcher  *ahocorasick.Matcher
	keywords []string
}

func newKeywordSet(words []string) *keywordSet {
	ks := &keywordSet{keywords: make([]string, 0, len(words))}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		n := normalizeKeyword(w)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		ks.keywords = append(ks.keywords, n)
	}
	if len(ks.keywords) > 0 {
		ks.matcher = ahocorasick.NewStringMatcher(ks.keywords)
	}
	return ks
}

// hits 返回命中的不同关键词个数；text 需已小写
func (ks *keywordSet) hits(text string) int {
	if ks.matcher == nil || text == "" {
		return 0
	}
	// Matcher 内部有计数状态，不能并发调用
	ks.mu.Lock()
	defer ks.mu.Unlock()
	return len(ks.matcher.Match([]byte(text)))
}

func (ks *keywordSet) any(text string) bool {
	return ks.hits(text) > 0
}

func normalizeKeyword(kw string) string {
	return strings.ToLower(strings.TrimSpace(kw))
}

// containsAny 普通子串判断，区分大小写
func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(text, t) {
			return true
		}
	}
	return false
}
