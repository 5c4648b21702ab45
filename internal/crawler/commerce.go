package crawler

import (
	"fmt"
	"log"

	"github.com/KianaMei/website-crawler/internal/fetcher"
	"github.com/KianaMei/website-crawler/internal/news"
)

// 商务部的新闻列表由前端脚本渲染，静态抓取经常只拿到壳子。
// 先按普通站点试一遍，列表为空再走 headless 浏览器兜底。

const commerceWaitSelector = "ul.txtList_01"

var commerceSite = Site{
	ID:   "commerce",
	Name: "商务部",
	Channels: []Channel{
		{
			ID:        "ldrhd",
			Name:      "领导人活动",
			Origin:    "商务部",
			FirstPage: "https://www.mofcom.gov.cn/xwfb/ldrhd/index.html",
		},
		{
			ID:        "bldhd",
			Name:      "部领导活动",
			Origin:    "商务部",
			FirstPage: "https://www.mofcom.gov.cn/xwfb/bldhd/index.html",
		},
	},
	ListSelectors: []ListSelector{
		{Container: "ul.txtList_01", Item: "li", Date: "span"},
	},
	DetailSelectors: []string{"div.art-con.art-con-bottonmLine", "div.art-con", "div.content", "article"},
}

// CommerceCrawler 商务部抓取器，带浏览器渲染兜底
type CommerceCrawler struct {
	inner   *SiteCrawler
	browser *fetcher.Browser // nil 时不启用兜底
}

func NewCommerceCrawler(f *fetcher.Client, browser *fetcher.Browser, recentCap int) *CommerceCrawler {
	return &CommerceCrawler{
		inner:   NewSiteCrawler(commerceSite, f, recentCap),
		browser: browser,
	}
}

func (c *CommerceCrawler) Name() string { return "commerce" }

// GetNews 复用通用执行骨架，只在列表采集这一步加浏览器兜底
func (c *CommerceCrawler) GetNews(opts Options) (resp news.Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("crawl commerce: unexpected panic: %v", r)
			resp = news.Error(news.CodeCrawlUnexpected, fmt.Sprint(r))
		}
	}()
	return c.inner.run(opts, func(ch Channel, opts Options, todayStr string) []listRow {
		rows := c.inner.collectChannel(ch, opts, todayStr)
		if len(rows) == 0 && c.browser != nil {
			rows = c.collectRendered(ch)
		}
		return rows
	})
}

// collectRendered 用浏览器渲染首页列表后复用同一套选择器解析
func (c *CommerceCrawler) collectRendered(ch Channel) []listRow {
	html, err := c.browser.FetchRenderedHTML(ch.FirstPage, commerceWaitSelector)
	if err != nil {
		log.Printf("crawl commerce/%s: browser fallback failed: %v", ch.ID, err)
		return nil
	}
	return parseList(html, ch.FirstPage, c.inner.site.listSelectorsFor(ch))
}
