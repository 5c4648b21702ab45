package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/KianaMei/website-crawler/internal/api"
	"github.com/KianaMei/website-crawler/internal/config"
	"github.com/KianaMei/website-crawler/internal/crawler"
	"github.com/KianaMei/website-crawler/internal/fetcher"
)

func main() {
	// .env 不存在时静默忽略，生产环境直接用环境变量
	_ = godotenv.Load()

	cfg := config.Load()

	f := fetcher.New(fetcher.Config{
		Timeout:     cfg.FetchTimeout,
		Retries:     cfg.FetchRetries,
		BackoffBase: cfg.FetchBackoff,
	})

	// 商务部站点列表页由 JS 渲染，静态抓不到时退回无头浏览器
	var browser *fetcher.Browser
	if cfg.BrowserFallback {
		b, err := fetcher.NewBrowser(cfg.BrowserTimeout)
		if err != nil {
			log.Printf("warn: headless browser unavailable, 商务部仅静态抓取: %v", err)
		} else {
			browser = b
			defer browser.Close()
		}
	}

	crawlers := api.Crawlers{
		ACFIC:     crawler.NewSiteCrawler(crawler.ACFICSite(), f, cfg.RecentCap),
		CFLP:      crawler.NewSiteCrawler(crawler.CFLPSite(), f, cfg.RecentCap),
		NDRC:      crawler.NewSiteCrawler(crawler.NDRCSite(), f, cfg.RecentCap),
		Transport: crawler.NewSiteCrawler(crawler.MOTSite(), f, cfg.RecentCap),
		Commerce:  crawler.NewCommerceCrawler(f, browser, cfg.RecentCap),
		ChinaISA:  crawler.NewChinaISACrawler(f, cfg.FetchTimeout, cfg.RecentCap),
		AIDaily:   crawler.NewAIDailyCrawler(cfg.FetchTimeout),
		CCTV:      crawler.NewCCTVCrawler(f),
		Paper:     crawler.NewPaperCrawler(f),
	}

	r := gin.Default()
	apiServer := api.NewServer(crawlers)
	apiServer.RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}
