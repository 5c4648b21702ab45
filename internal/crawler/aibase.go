package crawler

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/KianaMei/website-crawler/internal/dateparse"
	"github.com/KianaMei/website-crawler/internal/news"
)

// AIbase 是现代 UTF-8 站点，不需要编码探测，直接用 colly 抓。
// 日报页是一篇长文，按 <strong> 小标题切成多条新闻。

const aiDailyDefaultIndex = "https://news.aibase.com/zh/daily"

// AIDailyCrawler AIbase AI 日报抓取器
type AIDailyCrawler struct {
	indexURL string
	timeout  time.Duration
	now      func() time.Time
}

func NewAIDailyCrawler(timeout time.Duration) *AIDailyCrawler {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AIDailyCrawler{indexURL: aiDailyDefaultIndex, timeout: timeout, now: time.Now}
}

func (a *AIDailyCrawler) Name() string { return "ai_daily" }

func (a *AIDailyCrawler) GetNews(_ Options) (resp news.Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("crawl ai_daily: unexpected panic: %v", r)
			resp = news.Error(news.CodeCrawlUnexpected, fmt.Sprint(r))
		}
	}()

	c := a.newCollector()

	// 第一步：日报列表页找到最新一期的链接
	var dailyURL string
	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		if dailyURL != "" {
			return
		}
		if strings.Contains(e.Attr("href"), "/daily/") {
			dailyURL = e.Request.AbsoluteURL(e.Attr("href"))
		}
	})
	if err := c.Visit(a.indexURL); err != nil {
		return news.Error("CONTENT_FETCH_FAILED", err.Error())
	}
	if dailyURL == "" {
		return news.Empty(news.CodeNoData, "daily news link not found")
	}

	// 第二步：进正文，按 strong 小标题切分
	todayStr := dateparse.TodayBeijing(a.now()).Format("2006-01-02")
	var items []news.News

	detail := a.newCollector()
	detail.OnHTML("div[class*='post-content']", func(e *colly.HTMLElement) {
		var title string
		var parts []string
		flush := func() {
			if title == "" || len(parts) == 0 {
				return
			}
			items = append(items, news.News{
				Title:       title,
				URL:         fmt.Sprintf("%s#item-%d", dailyURL, len(items)+1),
				Origin:      "AIbase日报",
				Summary:     truncateRunes(collapseWhitespace(strings.Join(parts, " ")), summaryRuneLimit),
				PublishDate: todayStr,
			})
		}

		e.DOM.Find("p").Each(func(idx int, p *goquery.Selection) {
			// 开头两段是导语等无用信息
			if idx < 2 {
				return
			}
			strong := p.Find("strong").First()
			if strong.Length() > 0 && strong.Find("img").Length() == 0 {
				if t := strings.TrimSpace(strong.Text()); t != "" {
					flush()
					title, parts = t, nil
					return
				}
			}
			if t := strings.TrimSpace(p.Text()); t != "" {
				parts = append(parts, t)
			}
		})
		flush()
	})
	if err := detail.Visit(dailyURL); err != nil {
		return news.Error("CONTENT_FETCH_FAILED", err.Error())
	}

	if len(items) == 0 {
		return news.Empty(news.CodeNoData, "no content paragraphs found")
	}
	return news.OK(items)
}

func (a *AIDailyCrawler) newCollector() *colly.Collector {
	opts := []colly.CollectorOption{
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"),
	}
	if u, err := url.Parse(a.indexURL); err == nil && u.Hostname() != "" {
		opts = append(opts, colly.AllowedDomains(u.Hostname()))
	}
	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(a.timeout)
	return c
}
