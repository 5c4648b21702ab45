package crawler

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/KianaMei/website-crawler/internal/dateparse"
	"github.com/KianaMei/website-crawler/internal/fetcher"
	"github.com/KianaMei/website-crawler/internal/news"
	"github.com/KianaMei/website-crawler/internal/selector"
)

// 钢铁工业协会门户不走静态页面：列表与正文都由 POST 接口返回，
// HTML 以 JSON 字段（articleListHtml / article_content）内嵌的片段下发。

const (
	chinaISAPortalBase = "https://www.chinaisa.org.cn/gxportal/xfpt/portal/"
	chinaISAIndexBase  = "https://www.chinaisa.org.cn/gxportal/xfgl/portal/"
	chinaISAOrigin     = "中国钢铁工业协会"
)

// 默认栏目（调用方未指定时）
var chinaISADefaultColumns = []string{
	"c42511ce3f868a515b49668dd250290c80d4dc8930c7e455d0e6e14b8033eae2",
	"268f86fdf61ac8614f09db38a2d0295253043b03e092c7ff48ab94290296125c",
	"2e3c87064bdfc0e43d542d87fce8bcbc8fe0463d5a3da04d7e11b4c7d692194b",
}

// Subtab 一个子栏目
type Subtab struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Section 一个栏目的结构信息：基线映射加实时探测结果
type Section struct {
	Name            string   `json:"name"`
	Subtabs         []Subtab `json:"subtabs"`
	BaselineSubtabs []Subtab `json:"baseline_subtabs,omitempty"`
	Added           []string `json:"added,omitempty"`   // 实时探测到、基线没有的子栏目 ID
	Missing         []string `json:"missing,omitempty"` // 基线记载、实时没探测到的子栏目 ID
}

// 门户全部栏目，ID 取自站点 index.js
var chinaISAColumns = []Subtab{
	{ID: "c42511ce3f868a515b49668dd250290c80d4dc8930c7e455d0e6e14b8033eae2", Name: "要闻"},
	{ID: "268f86fdf61ac8614f09db38a2d0295253043b03e092c7ff48ab94290296125c", Name: "会员动态"},
	{ID: "2e3c87064bdfc0e43d542d87fce8bcbc8fe0463d5a3da04d7e11b4c7d692194b", Name: "统计发布"},
	{ID: "1b4316d9238e09c735365896c8e4f677a3234e8363e5622ae6e79a5900a76f56", Name: "行业分析"},
	{ID: "17b6a9a214c94ccc28e56d4d1a2dbb5acef3e73da431ddc0a849a4dcfc487d04", Name: "价格指数"},
	{ID: "5d77b433182404193834120ceed16fe0625860fafd5fd9e71d0800c4df227060", Name: "宏观经济信息"},
	{ID: "ae2a3c0fd4936acf75f4aab6fadd08bc6371aa65bdd50419e74b70d6f043c473", Name: "相关行业信息"},
	{ID: "1bad7c56af746a666e4a4e56e54a9508d344d7bc1498360580613590c16b6c41", Name: "国际动态"},
	{ID: "58af05dfb6b4300151760176d2aad0a04c275aaadbb1315039263f021f920dcd", Name: "钢协动态"},
	{ID: "a873c2e67b26b4a2d8313da769f6e106abc9a1ff04b7f1a50674dfa47cf91a7b", Name: "领导讲话"},
	{ID: "179cde9e2d8f7e84968dbfb9948056843a6f9e27f2aefd09bbb3ce67c501cccf", Name: "通知公告"},
}

// 三个分组型父栏目：抓取时展开子栏目，sections 接口单独汇报
var chinaISAGroupParents = []string{
	"2e3c87064bdfc0e43d542d87fce8bcbc8fe0463d5a3da04d7e11b4c7d692194b", // 统计发布
	"1b4316d9238e09c735365896c8e4f677a3234e8363e5622ae6e79a5900a76f56", // 行业分析
	"17b6a9a214c94ccc28e56d4d1a2dbb5acef3e73da431ddc0a849a4dcfc487d04", // 价格指数
}

var chinaISAExpandParents = func() map[string]struct{} {
	m := make(map[string]struct{}, len(chinaISAGroupParents))
	for _, id := range chinaISAGroupParents {
		m[id] = struct{}{}
	}
	return m
}()

// ChinaISAGroupColumns 返回分组型父栏目 ID，保持固定顺序
func ChinaISAGroupColumns() []string {
	return append([]string(nil), chinaISAGroupParents...)
}

// 子栏目的基线映射，留档以便对照实时探测结果
var chinaISABaselineSubtabs = map[string][]Subtab{
	// 统计发布
	"2e3c87064bdfc0e43d542d87fce8bcbc8fe0463d5a3da04d7e11b4c7d692194b": {
		{ID: "3238889ba0fa3aabcf28f40e537d440916a361c9170a4054f9fc43517cb58c1e", Name: "生产经营"},
		{ID: "95ef75c752af3b6c8be479479d8b931de7418c00150720280d78c8f0da0a438c", Name: "进出口"},
		{ID: "619ce7b53a4291d47c19d0ee0765098ca435e252576fbe921280a63fba4bc712", Name: "环保统计"},
	},
	// 行业分析
	"1b4316d9238e09c735365896c8e4f677a3234e8363e5622ae6e79a5900a76f56": {
		{ID: "a44207e193a5caa5e64102604b6933896a0025eb85c57c583b39626f33d4dafd", Name: "市场价格分析"},
		{ID: "05d0e136828584d2cd6e45bdc3270372764781b98546cce122d9974489b1e2f2", Name: "板带材"},
		{ID: "197422a82d9a09b9cc86188444574816e93186f2fde87474f8b028fc61472d35", Name: "社会库存"},
		{ID: "6dfc16a60056ec0f2234d45f5fd7068ec4d75f66021df5ff544102801674a59a", Name: "钢铁原料"},
	},
	// 价格指数
	"17b6a9a214c94ccc28e56d4d1a2dbb5acef3e73da431ddc0a849a4dcfc487d04": {
		{ID: "63913b906a7a663f7f71961952b1ddfa845714b5982655b773a62b85dd3b064e", Name: "综合价格指数"},
		{ID: "fc816c75aed82b9bc25563edc9cf0a0488a2012da38cbef5258da614d6e51ba9", Name: "地区价格"},
	},
}

var columnIDRe = regexp.MustCompile(`columnId=([0-9a-f]{64})`)

// ChinaISACrawler 钢铁工业协会门户抓取器
type ChinaISACrawler struct {
	rc         *resty.Client   // 门户 POST 接口
	fetch      *fetcher.Client // 详情页静态抓取兜底
	portalBase string
	indexBase  string
	recentCap  int
	now        func() time.Time
}

func NewChinaISACrawler(f *fetcher.Client, timeout time.Duration, recentCap int) *ChinaISACrawler {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rc := resty.New().
		SetTransport(&http.Transport{
			Proxy:           nil,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}).
		SetTimeout(timeout).
		SetHeaders(map[string]string{
			"User-Agent":       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
			"Accept":           "*/*",
			"Accept-Language":  "zh-CN,zh;q=0.9",
			"X-Requested-With": "XMLHttpRequest",
			"Origin":           "https://www.chinaisa.org.cn",
		})
	return &ChinaISACrawler{
		rc:         rc,
		fetch:      f,
		portalBase: chinaISAPortalBase,
		indexBase:  chinaISAIndexBase,
		recentCap:  recentCap,
		now:        time.Now,
	}
}

func (c *ChinaISACrawler) Name() string { return "chinaisa" }

// GetNews 抓取指定栏目（含可选子栏目展开），套用与静态站点一致的时间窗筛选
func (c *ChinaISACrawler) GetNews(opts Options) (resp news.Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("crawl chinaisa: unexpected panic: %v", r)
			resp = news.Error(news.CodeCrawlUnexpected, fmt.Sprint(r))
		}
	}()

	columns := opts.Channels
	if len(columns) == 0 {
		columns = chinaISADefaultColumns
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 1
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}

	// 展开父栏目的子栏目并按 ID 去重保序
	work := append([]string(nil), columns...)
	if opts.IncludeSubtabs {
		for _, cid := range columns {
			if _, ok := chinaISAExpandParents[cid]; ok {
				for _, st := range c.discoverSubtabs(cid) {
					work = append(work, st.ID)
				}
			}
		}
	}
	seen := make(map[string]struct{}, len(work))
	uniq := work[:0]
	for _, cid := range work {
		if _, ok := seen[cid]; ok {
			continue
		}
		seen[cid] = struct{}{}
		uniq = append(uniq, cid)
	}

	today := dateparse.TodayBeijing(c.now())
	todayStr := today.Format("2006-01-02")

	nonToday := 0
	var buckets []selector.Bucket
	for _, cid := range uniq {
		rows := c.collectColumn(cid, opts, todayStr, &nonToday)
		items := make([]selector.Item, 0, len(rows))
		for _, row := range rows {
			items = append(items, selector.Item{
				Title:       row.title,
				URL:         row.url,
				Origin:      chinaISAOrigin,
				Summary:     c.fetchDetailSummary(row.url),
				PublishDate: row.date,
			})
		}
		buckets = append(buckets, selector.Bucket{Channel: shortColumnID(cid), Items: items})
		if opts.MaxItems > 0 && nonToday >= opts.MaxItems {
			break
		}
	}

	result := selector.SelectRecent(buckets, today, selector.Options{
		WindowDays: opts.SinceDays,
		RecentCap:  c.recentCap,
	})
	log.Printf("crawl chinaisa: %s", result.Diagnostics)

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

// collectColumn 翻页抓取一个栏目；非当天条目计入全局配额
func (c *ChinaISACrawler) collectColumn(columnID string, opts Options, todayStr string, nonToday *int) []listRow {
	var acc []listRow
	for page := opts.Page; page < opts.Page+opts.MaxPages; page++ {
		data := c.fetchColumnData(columnID, page, opts.PageSize)
		if data == nil {
			break
		}
		rows := c.parseArticleList(asString(data["articleListHtml"]))
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			if row.date == todayStr {
				acc = append(acc, row)
				continue
			}
			if opts.MaxItems > 0 && *nonToday >= opts.MaxItems {
				continue
			}
			acc = append(acc, row)
			*nonToday++
		}
		if opts.MaxItems > 0 && *nonToday >= opts.MaxItems {
			break
		}
	}
	return acc
}

// postPortal 以表单字段 params 提交 JSON。个别部署要求对 JSON 做 URL
// 转义，失败时换一种编码再试。
func (c *ChinaISACrawler) postPortal(endpoint string, payload map[string]any, referer string) map[string]any {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	for _, formValue := range []string{string(body), url.QueryEscape(string(body))} {
		resp, err := c.rc.R().
			SetHeader("Referer", referer).
			SetFormData(map[string]string{"params": formValue}).
			Post(c.portalBase + endpoint)
		if err != nil || !resp.IsSuccess() {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(resp.Body(), &obj); err != nil {
			continue
		}
		if len(obj) > 0 {
			return obj
		}
	}
	return nil
}

func (c *ChinaISACrawler) fetchColumnData(columnID string, pageNo, pageSize int) map[string]any {
	referer := fmt.Sprintf("%slist.html?columnId=%s", c.indexBase, columnID)
	obj := c.postPortal("getColumnList", map[string]any{"columnId": columnID}, referer)
	if obj != nil && asString(obj["articleListHtml"]) != "" {
		return obj
	}
	obj = c.postPortal("getColumnList", map[string]any{
		"columnId": columnID,
		"param":    map[string]any{"pageNo": pageNo, "pageSize": pageSize},
	}, referer)
	if obj != nil && asString(obj["articleListHtml"]) != "" {
		return obj
	}
	return nil
}

// parseArticleList 解析接口下发的列表 HTML 片段
func (c *ChinaISACrawler) parseArticleList(fragment string) []listRow {
	if fragment == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}
	base, _ := url.Parse(c.indexBase)

	var rows []listRow
	doc.Find("ul.list li").Each(func(_ int, sel *goquery.Selection) {
		a := sel.Find("a[href]").First()
		if a.Length() == 0 {
			return
		}
		title := strings.TrimSpace(a.Text())
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if title == "" || href == "" {
			return
		}
		dateText := sel.Find("span.times").First().Text()
		if strings.TrimSpace(dateText) == "" {
			dateText = sel.Text()
		}
		date, _ := dateparse.Extract(dateText)
		rows = append(rows, listRow{title: title, url: joinURL(base, href), date: date})
	})
	if len(rows) > 0 {
		return rows
	}

	// 片段结构变动时兜底收集所有链接
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		title := strings.TrimSpace(a.Text())
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if title != "" && href != "" {
			rows = append(rows, listRow{title: title, url: joinURL(base, href)})
		}
	})
	return rows
}

// discoverSubtabs 从 columnListHtml 的导航锚点里发现子栏目及其名称
func (c *ChinaISACrawler) discoverSubtabs(columnID string) []Subtab {
	data := c.fetchColumnDataLoose(columnID)
	if data == nil {
		return nil
	}
	fragment := asString(data["columnListHtml"])
	if fragment == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}

	var out []Subtab
	seen := make(map[string]struct{})
	doc.Find(`a[href*="list.html?columnId="]`).Each(func(_ int, a *goquery.Selection) {
		m := columnIDRe.FindStringSubmatch(a.AttrOr("href", ""))
		if m == nil {
			return
		}
		sid := m[1]
		if sid == columnID {
			return
		}
		if _, ok := seen[sid]; ok {
			return
		}
		seen[sid] = struct{}{}
		out = append(out, Subtab{ID: sid, Name: strings.TrimSpace(a.Text())})
	})
	return out
}

// Sections 汇报栏目结构：每个栏目给出名称、实时探测到的子栏目、
// 基线映射，以及实时与基线的差异（added/missing）
func (c *ChinaISACrawler) Sections(includeSubtabs bool) map[string]Section {
	out := make(map[string]Section, len(chinaISAColumns))
	for _, col := range chinaISAColumns {
		entry := Section{Name: col.Name, Subtabs: []Subtab{}}
		baseline := chinaISABaselineSubtabs[col.ID]
		entry.BaselineSubtabs = baseline
		if includeSubtabs {
			if live := c.discoverSubtabs(col.ID); len(live) > 0 {
				entry.Subtabs = live
				if len(baseline) > 0 {
					entry.Added, entry.Missing = subtabDiff(live, baseline)
				}
			}
		}
		out[col.ID] = entry
	}
	return out
}

// subtabDiff 按 ID 对比实时探测与基线，返回新增与缺失的子栏目 ID
func subtabDiff(live, baseline []Subtab) (added, missing []string) {
	liveIDs := make(map[string]struct{}, len(live))
	for _, st := range live {
		liveIDs[st.ID] = struct{}{}
	}
	baseIDs := make(map[string]struct{}, len(baseline))
	for _, st := range baseline {
		baseIDs[st.ID] = struct{}{}
	}
	for _, st := range live {
		if _, ok := baseIDs[st.ID]; !ok {
			added = append(added, st.ID)
		}
	}
	for _, st := range baseline {
		if _, ok := liveIDs[st.ID]; !ok {
			missing = append(missing, st.ID)
		}
	}
	return added, missing
}

// fetchColumnDataLoose 同 fetchColumnData，但不要求返回里带文章列表
func (c *ChinaISACrawler) fetchColumnDataLoose(columnID string) map[string]any {
	referer := fmt.Sprintf("%slist.html?columnId=%s", c.indexBase, columnID)
	return c.postPortal("getColumnList", map[string]any{"columnId": columnID}, referer)
}

// fetchDetailSummary 优先走 viewArticleById 接口取正文，失败回退到静态页
func (c *ChinaISACrawler) fetchDetailSummary(articleURL string) string {
	if s, ok := c.detailViaAPI(articleURL); ok {
		return s
	}
	html, err := c.fetch.FetchHTML(articleURL)
	if err != nil {
		return ""
	}
	summary, _ := extractDetail(html, []string{
		".detail-main", ".article_detail", ".article-detail",
		".article_con", ".TRS_Editor", ".content", "#zoom", "article",
	})
	return summary
}

func (c *ChinaISACrawler) detailViaAPI(articleURL string) (string, bool) {
	pu, err := url.Parse(articleURL)
	if err != nil || !strings.HasSuffix(pu.Path, "/content.html") {
		return "", false
	}
	qs := pu.Query()
	articleID := qs.Get("articleId")
	if articleID == "" {
		return "", false
	}

	obj := c.postPortal("viewArticleById", map[string]any{
		"articleId": articleID,
		"columnId":  qs.Get("columnId"),
		"type":      "",
	}, articleURL)
	if obj == nil {
		return "", false
	}
	content := asString(obj["article_content"])
	if content == "" {
		return "", false
	}
	summary, _ := extractDetail(content, []string{".article_main"})
	return summary, true
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// shortColumnID 诊断信息里用缩短的栏目 ID，完整 64 位太吵
func shortColumnID(cid string) string {
	if len(cid) > 8 {
		return cid[:8]
	}
	return cid
}
