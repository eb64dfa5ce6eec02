package processor

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// 香港时区，用于把发布时间归一到本地日历日期
var locHK *time.Location

func init() {
	locHK, _ = time.LoadLocation("Asia/Hong_Kong")
	if locHK == nil {
		locHK = time.FixedZone("HKT", 8*3600)
	}
}

// HongKong 返回归一化日期使用的时区
func HongKong() *time.Location {
	return locHK
}

const isoPrefixLayout = "2006-01-02T15:04:05"

// 与 NormalizeDate 的输出格式严格对应，两边必须同时修改
var normalizedDateRe = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)

// RawDate feed 条目上的发布时间：解析后的结构化时间和原始文本，二者都可能缺失
type RawDate struct {
	Parsed *time.Time
	Text   string
}

// NormalizeDate 转成 "2025年11月26日"，无补零；无法解析时使用 now
func NormalizeDate(raw RawDate, now time.Time) string {
	t := now
	switch {
	case raw.Parsed != nil && !raw.Parsed.IsZero():
		t = *raw.Parsed
	case len(raw.Text) >= len(isoPrefixLayout):
		if parsed, err := time.ParseInLocation(isoPrefixLayout, raw.Text[:len(isoPrefixLayout)], locHK); err == nil {
			t = parsed
		}
	}
	t = t.In(locHK)
	return fmt.Sprintf("%d年%d月%d日", t.Year(), int(t.Month()), t.Day())
}

// ParseNormalizedDate 从归一化字符串还原为香港时间当天零点
func ParseNormalizedDate(s string) (time.Time, bool) {
	m := normalizedDateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, locHK), true
}
