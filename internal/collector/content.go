package collector

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"
)

const (
	pageRequestTimeout = 10 * time.Second
	// 段落兜底时过滤过短的文本（导航、版权等）
	minParagraphRunes = 20
)

// PageExtractor 抓取新闻原文页面并提取正文
type PageExtractor struct {
	UserAgent string
	Timeout   time.Duration
}

func NewPageExtractor() *PageExtractor {
	return &PageExtractor{
		UserAgent: BrowserUserAgent,
		Timeout:   pageRequestTimeout,
	}
}

// FetchContent 依次尝试 selectors，再退到段落拼接，最后用 readability
func (p *PageExtractor) FetchContent(ctx context.Context, pageURL string, selectors []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := colly.NewCollector(colly.UserAgent(p.UserAgent))
	c.SetRequestTimeout(p.Timeout)

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := c.Visit(pageURL); err != nil {
		return "", fmt.Errorf("page: visit %s: %w", pageURL, err)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("page: %s: %w", pageURL, ErrNoContent)
	}

	text, err := ExtractText(body, pageURL, selectors)
	if err != nil {
		return "", fmt.Errorf("page: %s: %w", pageURL, err)
	}
	return text, nil
}

// ExtractText 从 HTML 中提取正文
func ExtractText(body []byte, pageURL string, selectors []string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	for _, sel := range selectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t, nil
		}
	}

	if t := paragraphText(doc); t != "" {
		return t, nil
	}

	if t := readabilityText(body, pageURL); t != "" {
		return t, nil
	}

	return "", ErrNoContent
}

func paragraphText(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		t := strings.TrimSpace(s.Text())
		if utf8.RuneCountInString(t) > minParagraphRunes {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n\n")
}

func readabilityText(body []byte, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

// CleanHTML 去掉标签并合并空白
func CleanHTML(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
