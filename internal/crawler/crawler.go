package crawler

import (
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/KianaMei/website-crawler/internal/dateparse"
	"github.com/KianaMei/website-crawler/internal/fetcher"
	"github.com/KianaMei/website-crawler/internal/news"
	"github.com/KianaMei/website-crawler/internal/selector"
)

// Options 一次抓取的调用参数，与 API 层的查询参数一一对应
type Options struct {
	Channels  []string
	MaxPages  int
	MaxItems  int // 非当天条目的全局配额；当天条目不占配额
	SinceDays int // 回退窗口天数（含当天），<=0 用默认值

	// 仅门户型站点（ChinaISA）使用
	Page           int
	PageSize       int
	IncludeSubtabs bool

	// 仅纸媒日报（PaperCrawler）使用
	Source string // 报纸标识，如 peopledaily
	Date   string // 期号日期 YYYY-MM-DD，空则自动回溯最近可用刊期
}

// Crawler 一个站点抓取器，返回统一的 NewsResponse
type Crawler interface {
	Name() string
	GetNews(opts Options) news.Response
}

// SiteCrawler 配置驱动的通用站点抓取器：翻页抓列表、进详情补摘要，
// 再交给时间窗筛选。执行是单线程顺序的，一个实例复用一个 HTTP 客户端。
type SiteCrawler struct {
	site      Site
	fetcher   *fetcher.Client
	recentCap int
	now       func() time.Time
}

func NewSiteCrawler(site Site, f *fetcher.Client, recentCap int) *SiteCrawler {
	return &SiteCrawler{site: site, fetcher: f, recentCap: recentCap, now: time.Now}
}

func (c *SiteCrawler) Name() string { return c.site.ID }

type listRow struct {
	title string
	url   string
	date  string
}

// GetNews 抓取并筛选。任何意外 panic 都在此兜底转成 ERROR 响应，
// 不允许未处理的异常漏到 API 层。
func (c *SiteCrawler) GetNews(opts Options) (resp news.Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("crawl %s: unexpected panic: %v", c.site.ID, r)
			resp = news.Error(news.CodeCrawlUnexpected, fmt.Sprint(r))
		}
	}()
	return c.run(opts, c.collectChannel)
}

// run 通用执行骨架：栏目解析、详情补全、时间窗筛选、响应组装。
// collect 负责拿到一个栏目的列表行，带浏览器兜底的站点只替换这一步。
func (c *SiteCrawler) run(opts Options, collect func(Channel, Options, string) []listRow) news.Response {
	channels, err := c.site.resolveChannels(opts.Channels)
	if err != nil {
		return news.Error(news.CodeCrawlUnexpected, err.Error())
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 1
	}

	today := dateparse.TodayBeijing(c.now())
	todayStr := today.Format("2006-01-02")

	buckets := make([]selector.Bucket, 0, len(channels))
	for _, ch := range channels {
		rows := collect(ch, opts, todayStr)
		items := make([]selector.Item, 0, len(rows))
		for _, row := range rows {
			// 详情页给摘要；列表没给日期时顺便从详情回填
			summary, detailDate := c.fetchDetail(row.url)
			date := row.date
			if date == "" {
				date = detailDate
			}
			items = append(items, selector.Item{
				Title:       row.title,
				URL:         row.url,
				Origin:      ch.Origin,
				Summary:     summary,
				PublishDate: date,
			})
		}
		buckets = append(buckets, selector.Bucket{Channel: ch.ID, Items: items})
	}

	result := selector.SelectRecent(buckets, today, selector.Options{
		WindowDays: opts.SinceDays,
		RecentCap:  c.recentCap,
		Demote:     c.demoteFunc(),
	})
	log.Printf("crawl %s: %s", c.site.ID, result.Diagnostics)

	if len(result.Selected) == 0 {
		if result.FilteredByWindow {
			return news.Empty(news.CodeNoRecent, "今天无更新，且时间窗口内没有内容")
		}
		return news.Empty(news.CodeNoData, "无数据（解析/筛选摘要: "+result.Diagnostics+"）")
	}

	out := make([]news.News, 0, len(result.Selected))
	for _, it := range result.Selected {
		out = append(out, news.News{
			Title:       it.Title,
			URL:         it.URL,
			Origin:      it.Origin,
			Summary:     it.Summary,
			PublishDate: it.PublishDate,
		})
	}
	return news.OK(out)
}

// collectChannel 逐页抓取一个栏目的列表。列表页取失败时结束该栏目的
// 翻页而不中断整轮；非当天条目计入 MaxItems 配额，当天条目全收。
func (c *SiteCrawler) collectChannel(ch Channel, opts Options, todayStr string) []listRow {
	var acc []listRow
	nonToday := 0

	for page := 1; page <= opts.MaxPages; page++ {
		pageURL := ch.FirstPage
		if page > 1 {
			if ch.PagePattern == "" {
				break
			}
			pageURL = fmt.Sprintf(ch.PagePattern, page-1+ch.PageBase)
		}

		html, err := c.fetcher.FetchHTML(pageURL)
		if err != nil {
			log.Printf("crawl %s/%s: list page failed: %v", c.site.ID, ch.ID, err)
			break
		}

		rows := parseList(html, pageURL, c.site.listSelectorsFor(ch))
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			if row.date == todayStr {
				acc = append(acc, row)
				continue
			}
			if opts.MaxItems > 0 && nonToday >= opts.MaxItems {
				continue
			}
			acc = append(acc, row)
			nonToday++
		}
		if opts.MaxItems > 0 && nonToday >= opts.MaxItems {
			break
		}
	}
	return acc
}

// parseList 按选择器组逐个尝试解析列表页，取第一组有产出的
func parseList(html, pageURL string, selectors []ListSelector) []listRow {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	for _, ls := range selectors {
		root := doc.Selection
		if ls.Container != "" {
			found := doc.Find(ls.Container)
			if found.Length() == 0 {
				continue
			}
			root = found
		}

		var rows []listRow
		root.Find(ls.Item).Each(func(_ int, sel *goquery.Selection) {
			a := sel.Find("a[href]").First()
			if a.Length() == 0 {
				// 条目本身就是链接（如 a.list-group-item）
				if _, ok := sel.Attr("href"); !ok {
					return
				}
				a = sel
			}
			href := strings.TrimSpace(a.AttrOr("href", ""))
			if href == "" || strings.HasPrefix(href, "javascript:") {
				return
			}

			title := ""
			if ls.Title != "" {
				title = strings.TrimSpace(sel.Find(ls.Title).First().Text())
			}
			if title == "" {
				title = strings.TrimSpace(a.AttrOr("title", ""))
			}
			if title == "" {
				title = strings.TrimSpace(a.Text())
			}
			if title == "" {
				return
			}

			dateText := ""
			if ls.Date != "" {
				dateText = sel.Find(ls.Date).First().Text()
			}
			if strings.TrimSpace(dateText) == "" {
				dateText = sel.Text()
			}
			date, _ := dateparse.Extract(dateText)

			rows = append(rows, listRow{title: title, url: joinURL(base, href), date: date})
		})
		if len(rows) > 0 {
			return rows
		}
	}
	return nil
}

func joinURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

const (
	summaryRuneLimit = 200
	dateScanRunes   = 300
)

// fetchDetail 抓详情页取摘要。详情取不到不丢条目（标题/URL/日期
// 列表页已经有了），摘要置空即可。
func (c *SiteCrawler) fetchDetail(u string) (summary, date string) {
	html, err := c.fetcher.FetchHTML(u)
	if err != nil {
		log.Printf("crawl %s: detail %s failed: %v", c.site.ID, u, err)
		return "", ""
	}
	return extractDetail(html, c.site.DetailSelectors)
}

// extractDetail 从详情页提取正文摘要；发布日期一般出现在正文头部的
// 信息行里，只在开头一小段里找，避免误抓正文中的其它日期。
func extractDetail(html string, detailSelectors []string) (summary, date string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", ""
	}

	node := doc.Selection
	for _, sel := range detailSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			node = found.First()
			break
		}
	}
	node.Find("script,style,noscript").Remove()

	text := collapseWhitespace(node.Text())
	if d, ok := dateparse.Extract(headRunes(text, dateScanRunes)); ok {
		date = d
	}
	return truncateRunes(text, summaryRuneLimit), date
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// truncateRunes 按 rune 截断，避免把中文截成半个字符
func truncateRunes(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return strings.TrimRight(string(rs[:limit]), " ") + "..."
}

func headRunes(s string, n int) string {
	rs := []rune(s)
	if len(rs) > n {
		return string(rs[:n])
	}
	return s
}

func (c *SiteCrawler) demoteFunc() func(selector.Item) int {
	if len(c.site.DemoteKeywords) == 0 {
		return nil
	}
	keywords := c.site.DemoteKeywords
	return func(it selector.Item) int {
		s := strings.ToLower(it.URL) + " " + it.Title
		for _, kw := range keywords {
			if strings.Contains(s, kw) {
				return 1
			}
		}
		return 0
	}
}
