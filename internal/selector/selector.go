package selector

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// 各站点发布节奏不稳定，直接取"最近 N 条"会把陈年旧文和新文混在一起。
// 这里的策略是先问"今天有没有"，没有才放宽到近几天的小窗口，把陈旧度锁住。

// Item 参与筛选的单条新闻
type Item struct {
	Title       string
	URL         string
	Origin      string
	Summary     string
	PublishDate string // YYYY-MM-DD，可为空
}

// Bucket 一个栏目在本轮采集到的有序条目，采集完即弃，不落盘
type Bucket struct {
	Channel string
	Items   []Item
}

// Options 筛选参数
type Options struct {
	WindowDays int            // 回退窗口天数（含当天），<=0 用默认值
	RecentCap  int            // 窗口回退时每栏目最多保留条数，<=0 用默认值
	Demote     func(Item) int // 可选降权函数：0 正常 / 1 降权（如企业宣传类内容）
}

// Result 一次筛选的结果，调用方据 FilteredByWindow 区分 NO_RECENT 与 NO_DATA
type Result struct {
	Selected         []Item
	FilteredByWindow bool   // 有栏目采到了数据、但全部被时间窗过滤掉
	Diagnostics      string // 形如 "ch:采集数->选中数" 的逐栏目摘要
}

const (
	DefaultWindowDays = 3
	DefaultRecentCap  = 3 // 回退窗口上限；只限兜底数据，当天数据不设上限
)

// SelectRecent 逐栏目应用三级选取规则，再跨栏目聚合：
//  1. 当天有数据则全取（不设上限）；
//  2. 否则取窗口内按日期新到旧的最多 RecentCap 条；
//  3. 仍为空则该栏目空选，若其原本采到过数据则记 FilteredByWindow。
//
// 聚合阶段按 buckets 的先后保持栏目优先级，按 URL 去重（先出现者胜），
// 全局按发布日期倒序。降权只在同日内生效：同日期时正常条目在前，
// 窗口截断也按此顺序，优先裁掉降权条目；日期永远是第一排序键。
// today 由调用方显式给定，时区策略只在入口处决定一次。
func SelectRecent(buckets []Bucket, today time.Time, opts Options) Result {
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if opts.RecentCap <= 0 {
		opts.RecentCap = DefaultRecentCap
	}

	day, _ := parseDate(today.Format("2006-01-02"))
	earliest := day.AddDate(0, 0, -(opts.WindowDays - 1))

	var (
		combined []Item
		filtered bool
		diags    []string
	)
	for _, b := range buckets {
		var todays, window []Item
		for _, it := range b.Items {
			d, ok := parseDate(it.PublishDate)
			if !ok {
				// 无效日期既不算当天也不入窗口，绝不默认为今天
				continue
			}
			switch {
			case d.Equal(day):
				todays = append(todays, it)
			case !d.Before(earliest) && d.Before(day):
				window = append(window, it)
			}
		}

		selected := todays
		if len(selected) == 0 {
			sort.SliceStable(window, func(i, j int) bool {
				return orderLess(window[i], window[j], opts.Demote)
			})
			if len(window) > opts.RecentCap {
				window = window[:opts.RecentCap]
			}
			selected = window
		}
		if len(b.Items) > 0 && len(selected) == 0 {
			filtered = true
		}
		diags = append(diags, fmt.Sprintf("%s:%d->%d", b.Channel, len(b.Items), len(selected)))
		combined = append(combined, selected...)
	}

	// 按 URL 去重，保留先出现者
	seen := make(map[string]struct{}, len(combined))
	uniq := make([]Item, 0, len(combined))
	for _, it := range combined {
		if _, ok := seen[it.URL]; ok {
			continue
		}
		seen[it.URL] = struct{}{}
		uniq = append(uniq, it)
	}

	// 全局排序：发布日期倒序为主键，无日期的排最后，同日期降权条目靠后；
	// 稳定排序保证同日期同 tier 下仍按栏目先后
	sort.SliceStable(uniq, func(i, j int) bool {
		return orderLess(uniq[i], uniq[j], opts.Demote)
	})

	return Result{
		Selected:         uniq,
		FilteredByWindow: filtered,
		Diagnostics:      strings.Join(diags, "; "),
	}
}

// parseDate 严格解析 YYYY-MM-DD，失败一律按无日期处理
func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// orderLess 日期新者在前，有日期者排在无日期之前；
// 日期相同（或同为无日期）时才看降权 tier
func orderLess(a, b Item, demote func(Item) int) bool {
	da, oka := parseDate(a.PublishDate)
	db, okb := parseDate(b.PublishDate)
	if oka != okb {
		return oka
	}
	if oka && !da.Equal(db) {
		return da.After(db)
	}
	if demote != nil {
		if ta, tb := demote(a), demote(b); ta != tb {
			return ta < tb
		}
	}
	return false
}
