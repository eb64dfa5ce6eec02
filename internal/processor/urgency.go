package processor

// Urgency 紧急判定规则。
// Markers 为固定的广播紧急公告格式文字，出现在标题/正文/摘要任一处即紧急；
// 否则要求标题本身相关，且标题含 TitleTerms 或正文含 ContentTerms。
type Urgency struct {
	Markers      []string
	TitleTerms   []string
	ContentTerms []string
}

// IsUrgent 判断一条新闻是否紧急
func IsUrgent(rel *RelevanceMatcher, u Urgency, title, content, description string) bool {
	for _, marker := range u.Markers {
		if containsAny(title, []string{marker}) ||
			containsAny(content, []string{marker}) ||
			containsAny(description, []string{marker}) {
			return true
		}
	}

	if !rel.IsRelated(title) {
		return false
	}
	return containsAny(title, u.TitleTerms) || containsAny(content, u.ContentTerms)
}
