package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// 主模式：归一化中文分隔符后的 YYYY-M-D（容忍 1~2 位月日与空白）
	primaryRe = regexp.MustCompile(`(20\d{2})\s*[-/.]\s*(\d{1,2})\s*[-/.]\s*(\d{1,2})`)
	// 宽松模式：长文本里形如 YYYY-M-D 的子串
	looseRe = regexp.MustCompile(`(20\d{2})-(\d{1,2})-(\d{1,2})`)

	chineseSep = strings.NewReplacer("年", "-", "月", "-", "日", "")
)

// Extract 从混杂中文/ASCII 的文本中抽取日期并规范为 YYYY-MM-DD。
// 匹配到的年月日会构造真实日历日期做校验（2025-13-01、2025-02-30 一律视为无日期），
// ok=false 表示没有可用日期，调用方据此决定是否改查详情页。
func Extract(text string) (string, bool) {
	s := chineseSep.Replace(strings.TrimSpace(text))
	if d, ok := matchDate(primaryRe, s); ok {
		return d, true
	}
	return matchDate(looseRe, s)
}

func matchDate(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	// time.Date 会把越界值归一化（2 月 30 日变成 3 月初），据此识别假日期
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

// 东八区，"当天" 的判定基准
var locBeijing *time.Location

func init() {
	locBeijing, _ = time.LoadLocation("Asia/Shanghai")
	if locBeijing == nil {
		locBeijing = time.FixedZone("CST", 8*3600)
	}
}

// TodayBeijing 返回北京时间下 now 所在的自然日（UTC 零点表示，方便与
// time.Parse("2006-01-02", ...) 的结果直接比较）
func TodayBeijing(now time.Time) time.Time {
	n := now.In(locBeijing)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}
