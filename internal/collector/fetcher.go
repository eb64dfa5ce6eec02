package collector

import (
	"context"
	"errors"
	"time"
)

// 常规浏览器 UA，政府站点对爬虫 UA 会返回 403
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

var (
	// ErrMalformedFeed feed 内容有格式错误；可能同时返回已恢复的条目
	ErrMalformedFeed = errors.New("malformed feed")
	// ErrNoContent 页面抓取成功但提取不到正文
	ErrNoContent = errors.New("no content extracted")
)

// FeedItem feed 里的一条原始条目，流水线只读
type FeedItem struct {
	Title       string
	Link        string
	GUID        string
	Description string
	// PublishedParsed 由 feed 库解析出的时间，可能为 nil
	PublishedParsed *time.Time
	// PublishedText 原始发布时间文本
	PublishedText string
	Categories    []string
}

// FeedFetcher 抽象 feed 拉取
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]FeedItem, error)
}

// ContentFetcher 抽象原文抓取与正文提取
type ContentFetcher interface {
	FetchContent(ctx context.Context, pageURL string, selectors []string) (string, error)
}
