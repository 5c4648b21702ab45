package crawler

import (
	"fmt"
	"log"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/KianaMei/website-crawler/internal/dateparse"
	"github.com/KianaMei/website-crawler/internal/fetcher"
	"github.com/KianaMei/website-crawler/internal/news"
)

// 纸媒电子版按"刊期"组织：版面列表 -> 每版文章列表 -> 文章正文。
// 节假日会停刊，指定日期没有刊期时向前回溯最多 7 天找最近一期。

const (
	paperMaxBackDays      = 7
	paperDefaultMaxItems  = 10
	paperMaxItemsCeiling  = 50
	paperSummaryRuneLimit = 800
)

// 各报电子版根地址，测试中可整体替换
var defaultPaperBases = map[string]string{
	"peopledaily": "http://paper.people.com.cn/rmrb/pc",
	"guangming":   "https://epaper.gmw.cn/gmrb/html",
	"economic":    "http://paper.ce.cn/pc",
	"xinhua":      "http://mrdx.cn/content",
	"jjckb":       "http://dz.jjckb.cn/www/pages/webpage2009/html",
	"qiushi":      "https://www.qstheory.cn/qs/mulu.htm",
}

var paperOrigins = map[string]string{
	"peopledaily": "人民日报",
	"guangming":   "光明日报",
	"economic":    "经济日报",
	"qiushi":      "求是",
	"xinhua":      "新华每日电讯",
	"jjckb":       "经济参考报",
}

// PaperCrawler 官方纸媒日报抓取器，聚合多家报纸的电子版
type PaperCrawler struct {
	fetch *fetcher.Client
	bases map[string]string
	now   func() time.Time
}

func NewPaperCrawler(f *fetcher.Client) *PaperCrawler {
	bases := make(map[string]string, len(defaultPaperBases))
	for k, v := range defaultPaperBases {
		bases[k] = v
	}
	return &PaperCrawler{fetch: f, bases: bases, now: time.Now}
}

func (c *PaperCrawler) Name() string { return "paper" }

// PaperSources 返回受支持的报纸标识，按字典序
func PaperSources() []string {
	out := make([]string, 0, len(paperOrigins))
	for k := range paperOrigins {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (c *PaperCrawler) GetNews(opts Options) (resp news.Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("crawl paper: unexpected panic: %v", r)
			resp = news.Error(news.CodeCrawlUnexpected, fmt.Sprint(r))
		}
	}()

	source := strings.ToLower(strings.TrimSpace(opts.Source))
	if source == "" {
		source = "peopledaily"
	}
	origin, ok := paperOrigins[source]
	if !ok {
		return news.Error(news.CodeInvalidSource, "不支持的报纸: "+source)
	}

	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = paperDefaultMaxItems
	}
	if maxItems > paperMaxItemsCeiling {
		maxItems = paperMaxItemsCeiling
	}

	if source == "qiushi" {
		return c.qiushiNews(origin, opts.Date, maxItems)
	}

	y, m, d, pages := c.findAvailableIssue(source, opts.Date)
	if len(pages) == 0 {
		return news.Empty(news.CodeNoData, "回溯 7 天内未找到可用刊期")
	}
	date := fmt.Sprintf("%s-%s-%s", y, m, d)

	var out []news.News
	for _, pageURL := range pages {
		if len(out) >= maxItems {
			break
		}
		for _, artURL := range c.articleList(source, y, m, d, pageURL) {
			if len(out) >= maxItems {
				break
			}
			html, err := c.fetch.FetchHTML(artURL)
			if err != nil {
				log.Printf("crawl paper/%s: article %s failed: %v", source, artURL, err)
				continue
			}
			title, body := parsePaperArticle(source, html)
			out = append(out, news.News{
				Title:       title,
				URL:         artURL,
				Origin:      origin,
				Summary:     truncateRunes(body, paperSummaryRuneLimit),
				PublishDate: date,
			})
		}
	}
	if len(out) == 0 {
		return news.Empty(news.CodeNoData, "刊期 "+date+" 未解析出文章")
	}
	return news.OK(out)
}

// findAvailableIssue 先试调用方指定的日期，失败后从今天起向前回溯，
// 返回首个版面列表非空的刊期
func (c *PaperCrawler) findAvailableIssue(source, date string) (y, m, d string, pages []string) {
	if parts := strings.SplitN(date, "-", 3); len(parts) == 3 {
		if pages := c.pageList(source, parts[0], parts[1], parts[2]); len(pages) > 0 {
			return parts[0], parts[1], parts[2], pages
		}
	}
	base := dateparse.TodayBeijing(c.now())
	for i := 0; i <= paperMaxBackDays; i++ {
		day := base.AddDate(0, 0, -i)
		y := fmt.Sprintf("%d", day.Year())
		m := fmt.Sprintf("%02d", int(day.Month()))
		d := fmt.Sprintf("%02d", day.Day())
		if pages := c.pageList(source, y, m, d); len(pages) > 0 {
			return y, m, d, pages
		}
	}
	return "", "", "", nil
}

// pageList 取一个刊期的版面页 URL 列表，各报入口与导航结构不同
func (c *PaperCrawler) pageList(source, y, m, d string) []string {
	base := strings.TrimRight(c.bases[source], "/")
	switch source {
	case "peopledaily":
		first := fmt.Sprintf("%s/layout/%s%s/%s/node_01.html", base, y, m, d)
		doc := c.document(first)
		if doc == nil {
			return nil
		}
		nav := doc.Find("div#pageList div.right_title-name a")
		if nav.Length() == 0 {
			nav = doc.Find("div.swiper-container div.swiper-slide a")
		}
		return collectHrefs(nav, first, nil)

	case "guangming":
		first := fmt.Sprintf("%s/%s-%s/%s/nbs.D110000gmrb_01.htm", base, y, m, d)
		doc := c.document(first)
		if doc == nil {
			return nil
		}
		nav := doc.Find("div#pageList a")
		if nav.Length() == 0 {
			nav = doc.Find("a")
		}
		return collectHrefs(nav, first, nil)

	case "economic":
		first := fmt.Sprintf("%s/layout/%s%s/%s/node_01.html", base, y, m, d)
		doc := c.document(first)
		if doc == nil {
			return nil
		}
		pages := collectHrefs(doc.Find("a"), first, func(href string) bool {
			return strings.HasSuffix(href, ".html") && strings.Contains(href, "node_")
		})
		if !containsString(pages, first) {
			pages = append([]string{first}, pages...)
		}
		return pages

	case "xinhua":
		root := fmt.Sprintf("%s/%s%s%s/", base, y, m, d)
		for _, fname := range []string{"Page01DK.htm", "Page01.htm", "page01.htm"} {
			first := root + fname
			html, err := c.fetch.FetchHTML(first)
			if err != nil || !strings.Contains(html, "shijuedaohang") && !strings.Contains(html, "pageto") {
				continue
			}
			doc := parseDoc(html)
			if doc == nil {
				return nil
			}
			pages := collectHrefs(doc.Find("div.shijuedaohang a"), first, nil)
			if len(pages) == 0 {
				pages = []string{first}
			}
			return pages
		}
		return nil

	case "jjckb":
		root := fmt.Sprintf("%s/%s-%s/%s/", base, y, m, d)
		for _, fname := range []string{"node_2.htm", "node_1.htm", "node_3.htm"} {
			first := root + fname
			html, err := c.fetch.FetchHTML(first)
			if err != nil || !strings.Contains(html, "pageLink") && !strings.Contains(html, "ul02_l") {
				continue
			}
			doc := parseDoc(html)
			if doc == nil {
				return nil
			}
			pages := collectHrefs(doc.Find("a#pageLink"), first, nil)
			if len(pages) == 0 {
				pages = collectHrefs(doc.Find("a"), first, func(href string) bool {
					return nodePageRe.MatchString(href)
				})
			}
			if !containsString(pages, first) {
				pages = append([]string{first}, pages...)
			}
			return pages
		}
		return nil
	}
	return nil
}

var (
	nodePageRe     = regexp.MustCompile(`node_\d+\.htm$`)
	contentPageRe  = regexp.MustCompile(`content_\d+\.htm$`)
	mrdxDaoxiangRe = regexp.MustCompile(`daoxiang="([^"]+)"`)
	mrdxArticleRe  = regexp.MustCompile(`(?i)href="([^"]*Articel[^"]*\.htm)"`)
	qiushiIssueRe  = regexp.MustCompile(`/(\d{8})/[a-z0-9]{32}/c\.html$`)
	qiushiDukanRe  = regexp.MustCompile(`/dukan/qs/\d{4}-\d{2}/\d{2}/c_\d+\.htm$`)
)

// articleList 取一个版面页上的文章 URL 列表
func (c *PaperCrawler) articleList(source, y, m, d, pageURL string) []string {
	switch source {
	case "peopledaily":
		doc := c.document(pageURL)
		if doc == nil {
			return nil
		}
		items := doc.Find("div#titleList li a")
		if items.Length() == 0 {
			items = doc.Find("ul.news-list li a")
		}
		// 文章链接相对 content 目录而非 layout 目录
		contentBase := fmt.Sprintf("%s/content/%s%s/%s/",
			strings.TrimRight(c.bases[source], "/"), y, m, d)
		return collectHrefs(items, contentBase, func(href string) bool {
			return strings.Contains(href, "content")
		})

	case "guangming":
		doc := c.document(pageURL)
		if doc == nil {
			return nil
		}
		items := doc.Find("div#titleList li a")
		if items.Length() == 0 {
			items = doc.Find("li a")
		}
		return collectHrefs(items, pageURL, func(href string) bool {
			return strings.Contains(href, "/content/") || strings.HasSuffix(strings.ToLower(href), ".htm")
		})

	case "economic":
		doc := c.document(pageURL)
		if doc == nil {
			return nil
		}
		return collectHrefs(doc.Find("a"), pageURL, func(href string) bool {
			return strings.HasSuffix(href, ".html") && strings.Contains(href, "content_")
		})

	case "xinhua":
		html, err := c.fetch.FetchHTML(pageURL)
		if err != nil {
			return nil
		}
		base, err := url.Parse(pageURL)
		if err != nil {
			return nil
		}
		var links []string
		seen := map[string]struct{}{}
		for _, m := range mrdxDaoxiangRe.FindAllStringSubmatch(html, -1) {
			href := m[1]
			if !strings.HasSuffix(strings.ToLower(href), ".htm") {
				continue
			}
			appendUnique(&links, seen, joinURL(base, href))
		}
		if len(links) == 0 {
			for _, m := range mrdxArticleRe.FindAllStringSubmatch(html, -1) {
				appendUnique(&links, seen, joinURL(base, m[1]))
			}
		}
		return links

	case "jjckb":
		doc := c.document(pageURL)
		if doc == nil {
			return nil
		}
		links := collectHrefs(doc.Find("ul.ul02_l li a"), pageURL, func(href string) bool {
			return strings.HasSuffix(href, ".htm")
		})
		if len(links) == 0 {
			links = collectHrefs(doc.Find("area"), pageURL, func(href string) bool {
				return strings.HasSuffix(href, ".htm")
			})
		}
		if len(links) == 0 {
			links = collectHrefs(doc.Find("a"), pageURL, func(href string) bool {
				return contentPageRe.MatchString(href)
			})
		}
		return links
	}
	return nil
}

// qiushiNews 求是是半月刊，从总目录取最近（或指定日期的）一期
func (c *PaperCrawler) qiushiNews(origin, date string, maxItems int) news.Response {
	rootURL := c.bases["qiushi"]
	doc := c.document(rootURL)
	if doc == nil {
		return news.Empty(news.CodeNoData, "求是目录页不可用")
	}
	root, err := url.Parse(rootURL)
	if err != nil {
		return news.Error(news.CodeCrawlUnexpected, err.Error())
	}

	targetDate := strings.ReplaceAll(date, "-", "")
	type issue struct {
		url  string
		date string // YYYYMMDD
	}
	var issues []issue
	seen := map[string]struct{}{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		m := qiushiIssueRe.FindStringSubmatch(href)
		if m == nil {
			return
		}
		u := joinURL(root, href)
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		issues = append(issues, issue{url: u, date: m[1]})
	})
	// 日期倒序，最新一期在前
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].date > issues[j].date })

	for _, is := range issues {
		if targetDate != "" && is.date != targetDate {
			continue
		}
		links := c.qiushiArticles(is.url)
		if len(links) == 0 {
			continue
		}
		dateStr := fmt.Sprintf("%s-%s-%s", is.date[:4], is.date[4:6], is.date[6:])
		var out []news.News
		for _, artURL := range links {
			if len(out) >= maxItems {
				break
			}
			html, err := c.fetch.FetchHTML(artURL)
			if err != nil {
				log.Printf("crawl paper/qiushi: article %s failed: %v", artURL, err)
				continue
			}
			title, body := parsePaperArticle("qiushi", html)
			out = append(out, news.News{
				Title:       title,
				URL:         artURL,
				Origin:      origin,
				Summary:     truncateRunes(body, paperSummaryRuneLimit),
				PublishDate: dateStr,
			})
		}
		if len(out) > 0 {
			return news.OK(out)
		}
	}
	return news.Empty(news.CodeNoData, "未找到可用期号")
}

// qiushiArticles 期号目录里的文章链接，排除目录页自身
func (c *PaperCrawler) qiushiArticles(issueURL string) []string {
	doc := c.document(issueURL)
	if doc == nil {
		return nil
	}
	base, err := url.Parse(issueURL)
	if err != nil {
		return nil
	}
	var links []string
	seen := map[string]struct{}{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if !qiushiIssueRe.MatchString(href) && !qiushiDukanRe.MatchString(href) {
			return
		}
		u := joinURL(base, href)
		if u == issueURL {
			return
		}
		appendUnique(&links, seen, u)
	})
	return links
}

// 各报文章页的标题与正文容器
var paperTitleSelectors = map[string][]string{
	"peopledaily": {"h1"},
	"guangming":   {"h1", "title"},
	"economic":    {"h1", "h2", "title"},
	"xinhua":      {"h2", "title"},
	"jjckb":       {"founder-title", "h1", "h2", "h3", "title"},
	"qiushi":      {"h1", "h2", "title"},
}

var paperBodySelectors = map[string][]string{
	"peopledaily": {"#ozoom"},
	"guangming":   {"#ozoom", "#content", ".content", "div.article", "#mdf", "#detail"},
	"economic":    {"#content", "#ozoom", "div.content", "div#zoom", "div#articleContent", "div.article"},
	"xinhua":      {"#contenttext", "div.contenttext", "#ozoom", "#content", "div.content", "div.article"},
	"jjckb":       {"founder-content", "#content", "#ozoom", "div.content", "div.article", "td.black14"},
	"qiushi":      {"#Content", "div#content", ".content", "div.article", ".left_t", ".lft_Article", ".lft_artc_cont", "#ozoom"},
}

// parsePaperArticle 提取文章标题与正文。正文取首个命中的容器内
// 全部段落；都没命中时退回全文段落
func parsePaperArticle(source, html string) (title, body string) {
	doc := parseDoc(html)
	if doc == nil {
		return "", ""
	}
	for _, sel := range paperTitleSelectors[source] {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			title = t
			break
		}
	}
	for _, sel := range paperBodySelectors[source] {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if b := joinParagraphs(el); b != "" {
			body = b
			break
		}
	}
	if body == "" {
		body = joinParagraphs(doc.Selection)
	}
	return title, body
}

func joinParagraphs(sel *goquery.Selection) string {
	var parts []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := collapseWhitespace(p.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n")
}

func (c *PaperCrawler) document(u string) *goquery.Document {
	html, err := c.fetch.FetchHTML(u)
	if err != nil {
		return nil
	}
	return parseDoc(html)
}

func parseDoc(html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return doc
}

// collectHrefs 汇总一组锚点的绝对链接并去重；filter 为空取全部，
// javascript 伪链接一律跳过
func collectHrefs(sel *goquery.Selection, baseURL string, filter func(string) bool) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	var out []string
	seen := map[string]struct{}{}
	sel.Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript") {
			return
		}
		if filter != nil && !filter(href) {
			return
		}
		appendUnique(&out, seen, joinURL(base, href))
	})
	return out
}

func appendUnique(dst *[]string, seen map[string]struct{}, u string) {
	if _, ok := seen[u]; ok {
		return
	}
	seen[u] = struct{}{}
	*dst = append(*dst, u)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
