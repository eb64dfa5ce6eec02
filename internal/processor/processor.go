package processor

// 标签取值
const (
	TagGov    = "gov"
	TagNews   = "news"
	TagUrgent = "urgent"
)

// DedupeKey 判重使用的字段
type DedupeKey string

const (
	KeyTitle DedupeKey = "title"
	KeyURL   DedupeKey = "url"
)

// Ruleset 描述一个数据源的全部规则，流水线本身与数据源无关
type Ruleset struct {
	// Name 写入 source 字段：gov / rthk
	Name string
	// Label 运行总结里展示的名称
	Label string
	// SourceName 入库的来源全称
	SourceName string
	FeedURL    string

	Relevance Relevance
	Urgency   Urgency
	// DefaultTag 非紧急时的标签
	DefaultTag string

	DedupeKeys []DedupeKey

	// MinDescriptionRunes 摘要达到该长度才直接作为正文，否则抓取原文
	MinDescriptionRunes int
	ContentSelectors    []string

	// GUIDAsLink link 为空时使用 guid
	GUIDAsLink bool
	// CleanDescription 摘要含 HTML，需要清理
	CleanDescription bool
}

// Tag 根据是否紧急返回标签
func (r Ruleset) Tag(urgent bool) string {
	if urgent {
		return TagUrgent
	}
	return r.DefaultTag
}

var fireCoreKeywords = []string{
	"火",
	"火警",
	"火災",
	"火災事故",
	"火災現場",
	"宏福苑",
}

var fireSupportingKeywords = []string{
	"大埔",
	"宏福",
	"庇護中心",
	"臨時庇護",
	"疏散",
	"消防",
	"救援",
	"緊急",
	"撤離",
}

// 当值宣布员格式的紧急公告
const BroadcastAlertMarker = "電台及電視台當值宣布員注意"

// GovRules 政府新闻公报：用词较泛，采用两级关键词
func GovRules() Ruleset {
	return Ruleset{
		Name:       "gov",
		Label:      "政府新聞",
		SourceName: "香港政府新聞公報",
		FeedURL:    "https://www.info.gov.hk/gia/rss/general_zh.xml",
		Relevance: Relevance{
			Core:          fireCoreKeywords,
			Supporting:    fireSupportingKeywords,
			Anchors:       []string{"大埔", "宏福"},
			MinSupporting: 2,
		},
		Urgency: Urgency{
			TitleTerms:   []string{"緊急", "火警", "火災"},
			ContentTerms: []string{"緊急", "撤離"},
		},
		DefaultTag:          TagGov,
		DedupeKeys:          []DedupeKey{KeyTitle},
		MinDescriptionRunes: 1,
		ContentSelectors:    []string{"#pressrelease", ".pressrelease", "#content", ".content", "article", "main"},
		CleanDescription:    true,
	}
}

// RTHKRules 港台即时新闻：上游已偏向本地突发，采用单层关键词
func RTHKRules() Ruleset {
	flat := make([]string, 0, len(fireCoreKeywords)+len(fireSupportingKeywords)+5)
	flat = append(flat, fireCoreKeywords...)
	flat = append(flat, fireSupportingKeywords...)
	flat = append(flat, "五級火", "四級火", "三級火", "二級火", "一級火")

	return Ruleset{
		Name:       "rthk",
		Label:      "RTHK 新聞",
		SourceName: "香港電台 (RTHK)",
		FeedURL:    "https://rthk.hk/rthk/news/rss/c_expressnews_clocal.xml",
		Relevance:  Relevance{Core: flat},
		Urgency: Urgency{
			Markers:      []string{BroadcastAlertMarker},
			TitleTerms:   []string{"緊急", "火警", "火災", "五級火", "四級火"},
			ContentTerms: []string{"緊急", "撤離", "死亡", "失聯"},
		},
		DefaultTag:          TagNews,
		DedupeKeys:          []DedupeKey{KeyTitle, KeyURL},
		MinDescriptionRunes: 100,
		ContentSelectors:    []string{".article-content", ".content", "#content", "article", ".news-content", "main"},
		GUIDAsLink:          true,
	}
}
