package processor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGovRelevanceTiers(t *testing.T) {
	m := NewRelevanceMatcher(GovRules().Relevance)

	cases := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"whitespace", "   \n\t ", false},
		{"core at start", "火警消息", true},
		{"core in middle", "政府就宏福苑事件成立專責小組", true},
		{"core at end", "屋苑發生火", true},
		{"single supporting", "消防處發布安全提示", false},
		{"two supporting no anchor", "救援及疏散演習順利完成", false},
		{"two supporting with 大埔", "大埔居民撤離到臨時庇護中心", true},
		{"two supporting with 宏福", "宏福居民緊急撤離", true},
		{"anchor but one supporting", "大埔區議會會議", false},
		{"unrelated", "天氣預告", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, m.IsRelated(c.text))
		})
	}
}

func TestRTHKRelevanceFlat(t *testing.T) {
	m := NewRelevanceMatcher(RTHKRules().Relevance)

	assert.False(t, m.IsRelated(""))
	assert.False(t, m.IsRelated("天氣預告"))
	assert.True(t, m.IsRelated("大埔區議會會議"))
	assert.True(t, m.IsRelated("消防處發布安全提示"))
	assert.True(t, m.IsRelated("大埔宏福苑五級火最新情況"))
	assert.True(t, m.IsRelated("一級火"))
}

func TestRelevanceCaseInsensitive(t *testing.T) {
	m := NewRelevanceMatcher(Relevance{Core: []string{"Wang Fuk"}})

	assert.True(t, m.IsRelated("latest on WANG FUK court"))
	assert.True(t, m.IsRelated("xxwang fukxx"))
	assert.False(t, m.IsRelated("wang-fuk"))
}

func TestAnyRelated(t *testing.T) {
	m := NewRelevanceMatcher(GovRules().Relevance)

	assert.True(t, m.AnyRelated("立法會會議", "會上討論宏福苑火災"))
	assert.False(t, m.AnyRelated("立法會會議", ""))
}

func TestSupportingHitsCountDistinctKeywords(t *testing.T) {
	m := NewRelevanceMatcher(GovRules().Relevance)

	// 同一个辅助关键词重复出现只算一次
	assert.False(t, m.IsRelated("大埔 大埔 大埔"))
	assert.True(t, m.IsRelated("大埔 消防"))
}

func TestUrgencyGov(t *testing.T) {
	r := GovRules()
	m := NewRelevanceMatcher(r.Relevance)

	assert.True(t, IsUrgent(m, r.Urgency, "大埔火災最新安排", "", ""))
	assert.True(t, IsUrgent(m, r.Urgency, "宏福苑居民支援", "居民需要撤離", ""))
	assert.False(t, IsUrgent(m, r.Urgency, "宏福苑居民支援", "發放津貼", ""))
	// 标题不相关时，正文再紧急也不算
	assert.False(t, IsUrgent(m, r.Urgency, "立法會會議", "緊急撤離", ""))
	// 政府源没有广播格式规则
	assert.False(t, IsUrgent(m, r.Urgency, "立法會會議", BroadcastAlertMarker, ""))
}

func TestUrgencyRTHK(t *testing.T) {
	r := RTHKRules()
	m := NewRelevanceMatcher(r.Relevance)

	assert.True(t, IsUrgent(m, r.Urgency, "大埔宏福苑五級火最新情況", "", ""))
	assert.True(t, IsUrgent(m, r.Urgency, "大埔最新情況", "兩人死亡", ""))
	assert.True(t, IsUrgent(m, r.Urgency, "天氣預告", "", "請"+BroadcastAlertMarker))
	assert.True(t, IsUrgent(m, r.Urgency, BroadcastAlertMarker, "", ""))
	assert.False(t, IsUrgent(m, r.Urgency, "大埔最新情況", "居民返回家中", ""))
	assert.False(t, IsUrgent(m, r.Urgency, "天氣預告", "緊急", ""))
}

func TestRulesetTag(t *testing.T) {
	assert.Equal(t, TagUrgent, GovRules().Tag(true))
	assert.Equal(t, TagGov, GovRules().Tag(false))
	assert.Equal(t, TagUrgent, RTHKRules().Tag(true))
	assert.Equal(t, TagNews, RTHKRules().Tag(false))
}

func TestNormalizeDateStructured(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, HongKong())
	pub := time.Date(2025, 11, 26, 10, 30, 0, 0, HongKong())

	got := NormalizeDate(RawDate{Parsed: &pub}, now)
	assert.Equal(t, "2025年11月26日", got)
	assert.Equal(t, got, NormalizeDate(RawDate{Parsed: &pub}, now))

	// UTC 晚上已是香港次日
	utc := time.Date(2025, 11, 26, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025年11月27日", NormalizeDate(RawDate{Parsed: &utc}, now))
}

func TestNormalizeDateText(t *testing.T) {
	now := time.Date(2030, 1, 2, 12, 0, 0, 0, HongKong())

	assert.Equal(t, "2025年3月5日", NormalizeDate(RawDate{Text: "2025-03-05T08:00:00+08:00"}, now))
	assert.Equal(t, "2025年12月31日", NormalizeDate(RawDate{Text: "2025-12-31T23:59:59.999Z"}, now))
	// 非 ISO 文本或缺失时使用当前时间
	assert.Equal(t, "2030年1月2日", NormalizeDate(RawDate{Text: "Thu, 27 Nov 2025 01:20:24 +0800"}, now))
	assert.Equal(t, "2030年1月2日", NormalizeDate(RawDate{Text: "2025-11"}, now))
	assert.Equal(t, "2030年1月2日", NormalizeDate(RawDate{}, now))
}

func TestParseNormalizedDateRoundTrip(t *testing.T) {
	pub := time.Date(2025, 11, 26, 10, 30, 0, 0, HongKong())
	s := NormalizeDate(RawDate{Parsed: &pub}, time.Now())

	got, ok := ParseNormalizedDate(s)
	require.True(t, ok)
	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.November, got.Month())
	assert.Equal(t, 26, got.Day())
	assert.Equal(t, 0, got.Hour())

	_, ok = ParseNormalizedDate("26/11/2025")
	assert.False(t, ok)
	_, ok = ParseNormalizedDate("2025年13月1日")
	assert.False(t, ok)
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		title, content, want string
	}{
		{"火勢受控", "", "event-update"},
		{"政府發放津貼", "", "financial-support"},
		{"臨時住宿安排", "", "accommodation"},
		{"立法會", "成立獨立調查委員會", "investigation"},
		{"政府成立獨立調查委員會", "", "government-announcement"},
		{"消防員撲救大火", "", "event-update"},
		{"宏福苑居民可申領現金", "", "financial-support"},
		{"社工到場支援", "", "emotional-support"},
		{"過渡性房屋開放登記", "", "accommodation"},
		{"義診服務", "", "medical-legal"},
		{"公布修復時間表", "", "reconstruction"},
		{"傷亡人數", "", "statistics"},
		{"民間自發送暖", "", "community-support"},
		{"消防處最新公布", "", "government-announcement"},
		{"ICAC 介入", "", "investigation"},
		{"警方拘捕三人", "", "investigation"},
		{"天氣預告", "明天晴朗", CategoryGeneral},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Categorize(c.title, c.content), c.title)
	}
}
