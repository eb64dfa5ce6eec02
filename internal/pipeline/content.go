package pipeline

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ContentUnavailable 抓取失败且没有摘要时写入的正文
const ContentUnavailable = "無法獲取新聞內容"

// contentOutcome 原文抓取结果，由 resolveContent 折叠成最终正文
type contentOutcome struct {
	text string
	err  error
}

func (p *Pipeline) fetchContent(ctx context.Context, url string) contentOutcome {
	text, err := p.content.FetchContent(ctx, url, p.rules.ContentSelectors)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptyContent
	}
	return contentOutcome{text: strings.TrimSpace(text), err: err}
}

// resolveContent 摘要足够长直接使用，否则抓原文；任何失败都回退到摘要或占位文本
func (p *Pipeline) resolveContent(ctx context.Context, c candidate) string {
	desc := strings.TrimSpace(c.Description)
	if desc != "" && utf8.RuneCountInString(desc) >= p.rules.MinDescriptionRunes {
		return desc
	}

	p.log.Info("fetching article content", zap.String("title", c.Title), zap.String("url", c.URL))
	out := p.fetchContent(ctx, c.URL)
	if out.err == nil {
		return out.text
	}

	p.log.Warn("fetch article content failed", zap.String("url", c.URL), zap.Error(out.err))
	p.metrics.Errors.WithLabelValues(p.rules.Name, "content").Inc()
	if desc != "" {
		return desc
	}
	return ContentUnavailable
}
