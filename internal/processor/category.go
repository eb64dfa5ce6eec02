package processor

import "strings"

type categoryRule struct {
	name  string
	terms []string
}

// 按顺序匹配，先命中者优先
var categoryRules = []categoryRule{
	{"event-update", []string{"火勢", "救援", "現場", "進展", "控制", "撲救"}},
	{"financial-support", []string{"資助", "補助", "津貼", "賠償", "基金", "捐款", "財政", "經濟", "現金"}},
	{"emotional-support", []string{"心理", "輔導", "情緒", "社工", "精神健康", "創傷", "哀傷"}},
	{"accommodation", []string{"庇護", "住宿", "臨時", "過渡性房屋", "休息站", "社區會堂"}},
	{"medical-legal", []string{"醫療", "法律", "諮詢", "義診", "醫療站"}},
	{"reconstruction", []string{"重建", "恢復", "修復", "時間表"}},
	{"statistics", []string{"死亡", "受傷", "失蹤", "統計", "人數"}},
	{"community-support", []string{"義工", "物資", "社區", "志願", "民間"}},
	{"government-announcement", []string{"政府", "民政", "社會福利署", "消防處", "官方"}},
	{"investigation", []string{
		"調查", "刑事", "貪污", "執法", "檢控", "起訴", "拘捕", "審訊", "法庭",
		"廉政公署", "icac", "警方", "警務處", "事故調查", "原因調查", "責任調查",
	}},
}

// CategoryGeneral 无规则命中时的分类
const CategoryGeneral = "general-news"

// Categorize 关键词兜底分类
func Categorize(title, content string) string {
	text := strings.ToLower(title + " " + content)
	for _, r := range categoryRules {
		if containsAny(text, r.terms) {
			return r.name
		}
	}
	return CategoryGeneral
}
