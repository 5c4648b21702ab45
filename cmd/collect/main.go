package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/KianaMei/website-crawler/internal/config"
	"github.com/KianaMei/website-crawler/internal/crawler"
	"github.com/KianaMei/website-crawler/internal/fetcher"
)

// 一个仅执行一次抓取的命令行入口：适合调试站点选择器和编码问题
func main() {
	site := flag.String("site", "acfic", "站点: acfic|cflp|ndrc|mot|mofcom|chinaisa|aibase|cctv|paper")
	channels := flag.String("channels", "", "栏目，逗号分隔，留空用站点默认")
	maxItems := flag.Int("max-items", 10, "每栏目最多条数")
	maxPages := flag.Int("max-pages", 1, "每栏目最多翻页数")
	source := flag.String("source", "peopledaily", "报纸标识（仅 -site paper）")
	date := flag.String("date", "", "刊期日期 YYYY-MM-DD（仅 -site paper，空则取最近一期）")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	f := fetcher.New(fetcher.Config{
		Timeout:     cfg.FetchTimeout,
		Retries:     cfg.FetchRetries,
		BackoffBase: cfg.FetchBackoff,
	})

	var c crawler.Crawler
	switch *site {
	case "acfic":
		c = crawler.NewSiteCrawler(crawler.ACFICSite(), f, cfg.RecentCap)
	case "cflp":
		c = crawler.NewSiteCrawler(crawler.CFLPSite(), f, cfg.RecentCap)
	case "ndrc":
		c = crawler.NewSiteCrawler(crawler.NDRCSite(), f, cfg.RecentCap)
	case "mot":
		c = crawler.NewSiteCrawler(crawler.MOTSite(), f, cfg.RecentCap)
	case "mofcom":
		// 命令行调试不起浏览器，只走静态抓取
		c = crawler.NewCommerceCrawler(f, nil, cfg.RecentCap)
	case "chinaisa":
		c = crawler.NewChinaISACrawler(f, cfg.FetchTimeout, cfg.RecentCap)
	case "aibase":
		c = crawler.NewAIDailyCrawler(cfg.FetchTimeout)
	case "cctv":
		c = crawler.NewCCTVCrawler(f)
	case "paper":
		c = crawler.NewPaperCrawler(f)
	default:
		log.Fatalf("unknown site %q", *site)
	}

	opts := crawler.Options{
		MaxItems: *maxItems,
		MaxPages: *maxPages,
		Source:   *source,
		Date:     *date,
	}
	if *channels != "" {
		for _, ch := range strings.Split(*channels, ",") {
			if ch = strings.TrimSpace(ch); ch != "" {
				opts.Channels = append(opts.Channels, ch)
			}
		}
	}

	resp := c.GetNews(opts)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp); err != nil {
		log.Fatalf("encode response: %v", err)
	}
}
