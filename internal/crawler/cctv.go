package crawler

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/KianaMei/website-crawler/internal/dateparse"
	"github.com/KianaMei/website-crawler/internal/fetcher"
	"github.com/KianaMei/website-crawler/internal/news"
)

// 新闻联播首页是一期节目单，条目没有各自的日期；节目每晚播出、
// 文字稿次日凌晨挂出，所以发布日期统一记为北京时间的昨天。

const cctvIndexURL = "https://tv.cctv.com/lm/xwlb/index.shtml"

// CCTVCrawler 央视新闻联播抓取器
type CCTVCrawler struct {
	fetch    *fetcher.Client
	indexURL string
	now      func() time.Time
}

func NewCCTVCrawler(f *fetcher.Client) *CCTVCrawler {
	return &CCTVCrawler{fetch: f, indexURL: cctvIndexURL, now: time.Now}
}

func (c *CCTVCrawler) Name() string { return "cctv" }

func (c *CCTVCrawler) GetNews(opts Options) (resp news.Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("crawl cctv: unexpected panic: %v", r)
			resp = news.Error(news.CodeCrawlUnexpected, fmt.Sprint(r))
		}
	}()

	html, err := c.fetch.FetchHTML(c.indexURL)
	if err != nil {
		return news.Error(news.CodeCrawlUnexpected, err.Error())
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return news.Error(news.CodeCrawlUnexpected, err.Error())
	}
	ul := doc.Find("ul#content")
	if ul.Length() == 0 {
		return news.Error(news.CodeIndexNotFound, "ul#content missing")
	}
	base, err := url.Parse(c.indexURL)
	if err != nil {
		return news.Error(news.CodeCrawlUnexpected, err.Error())
	}

	type entry struct {
		title string
		url   string
	}
	var entries []entry
	index := map[string]int{}
	ul.Find("li").Each(func(i int, li *goquery.Selection) {
		if i == 0 {
			// 第一条是整期视频，不是单条新闻
			return
		}
		a := li.Find("a").First()
		if a.Length() == 0 {
			return
		}
		href := strings.TrimSpace(a.AttrOr("href", ""))
		title := cctvTitle(a)
		if href == "" || title == "" {
			return
		}
		u := joinURL(base, href)
		// 同题条目只保留一条，链接以后出现的为准
		if at, ok := index[title]; ok {
			entries[at].url = u
			return
		}
		index[title] = len(entries)
		entries = append(entries, entry{title: title, url: u})
	})

	yesterday := dateparse.TodayBeijing(c.now()).AddDate(0, 0, -1).Format("2006-01-02")

	out := make([]news.News, 0, len(entries))
	for _, e := range entries {
		summary, ok := c.fetchTranscript(e.url)
		if !ok {
			continue
		}
		out = append(out, news.News{
			Title:       e.title,
			URL:         e.url,
			Origin:      "新闻联播",
			Summary:     summary,
			PublishDate: yesterday,
		})
	}
	if len(out) == 0 {
		return news.Empty(news.CodeNoData, "未解析出新闻条目")
	}
	return news.OK(out)
}

// cctvTitle 链接的 title 属性带"[视频]"前缀，按 rune 去掉前 4 个字符
func cctvTitle(a *goquery.Selection) string {
	attr := strings.TrimSpace(a.AttrOr("title", ""))
	if rs := []rune(attr); len(rs) > 4 {
		return strings.TrimSpace(string(rs[4:]))
	}
	return strings.TrimSpace(a.Text())
}

// fetchTranscript 抓文字稿，拼接 div.content_area 下全部段落；
// 没有该容器的页面跳过整条，不算失败
func (c *CCTVCrawler) fetchTranscript(u string) (string, bool) {
	html, err := c.fetch.FetchHTML(u)
	if err != nil {
		log.Printf("crawl cctv: detail %s failed: %v", u, err)
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	area := doc.Find("div.content_area")
	if area.Length() == 0 {
		return "", false
	}
	var sb strings.Builder
	area.Find("p").Each(func(_ int, p *goquery.Selection) {
		sb.WriteString(strings.TrimSpace(p.Text()))
	})
	return sb.String(), true
}
