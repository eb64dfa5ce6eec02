package collector

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	feedClientTimeout    = 15 * time.Second
	feedMaxResponseBytes = 4 << 20 // 4MB
)

// RSSFetcher 通过 HTTP 拉取 RSS/Atom 并用 gofeed 解析
type RSSFetcher struct {
	Client    *http.Client
	UserAgent string
}

func NewRSSFetcher() *RSSFetcher {
	return &RSSFetcher{
		Client:    &http.Client{Timeout: feedClientTimeout},
		UserAgent: BrowserUserAgent,
	}
}

func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string) ([]FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("rss: build request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rss: fetch %s: %w", feedURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss: fetch %s: unexpected status %d", feedURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, feedMaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("rss: read %s: %w", feedURL, err)
	}

	return ParseFeed(body)
}

// ParseFeed 解析 feed 正文。
// 解析失败时先替换非法 UTF-8 重试，仍失败则逐条恢复 <item>/<entry>；
// 这两种情况返回已恢复的条目，同时返回 ErrMalformedFeed。
func ParseFeed(body []byte) ([]FeedItem, error) {
	items, err := parseStrict(body)
	if err == nil {
		return items, nil
	}

	clean := bytes.ToValidUTF8(body, []byte("\uFFFD"))
	if !bytes.Equal(clean, body) {
		if items, retryErr := parseStrict(clean); retryErr == nil {
			return items, fmt.Errorf("%w: invalid utf-8 replaced: %v", ErrMalformedFeed, err)
		}
	}

	return recoverItems(clean), fmt.Errorf("%w: %v", ErrMalformedFeed, err)
}

func parseStrict(body []byte) ([]FeedItem, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	items := make([]FeedItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry == nil {
			continue
		}
		desc := entry.Description
		if strings.TrimSpace(desc) == "" {
			desc = entry.Content
		}
		items = append(items, FeedItem{
			Title:           strings.TrimSpace(entry.Title),
			Link:            strings.TrimSpace(entry.Link),
			GUID:            strings.TrimSpace(entry.GUID),
			Description:     strings.TrimSpace(desc),
			PublishedParsed: entry.PublishedParsed,
			PublishedText:   strings.TrimSpace(entry.Published),
			Categories:      entry.Categories,
		})
	}
	return items, nil
}

var (
	rssItemRe   = regexp.MustCompile(`(?s)<item[\s>].*?</item>`)
	atomEntryRe = regexp.MustCompile(`(?s)<entry[\s>].*?</entry>`)
)

const (
	rssWrapOpen = `<?xml version="1.0" encoding="UTF-8"?>` +
		`<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom"><channel>`
	rssWrapClose  = `</channel></rss>`
	atomWrapOpen  = `<?xml version="1.0" encoding="UTF-8"?><feed xmlns="http://www.w3.org/2005/Atom">`
	atomWrapClose = `</feed>`
)

// recoverItems 把每个完整的条目单独包成最小 feed 再解析，坏条目和截断的尾部被跳过
func recoverItems(body []byte) []FeedItem {
	if out := recoverChunks(rssItemRe.FindAll(body, -1), rssWrapOpen, rssWrapClose); len(out) > 0 {
		return out
	}
	return recoverChunks(atomEntryRe.FindAll(body, -1), atomWrapOpen, atomWrapClose)
}

func recoverChunks(chunks [][]byte, openTag, closeTag string) []FeedItem {
	var out []FeedItem
	for _, chunk := range chunks {
		doc := make([]byte, 0, len(openTag)+len(chunk)+len(closeTag))
		doc = append(doc, openTag...)
		doc = append(doc, chunk...)
		doc = append(doc, closeTag...)
		items, err := parseStrict(doc)
		if err != nil {
			continue
		}
		out = append(out, items...)
	}
	return out
}
