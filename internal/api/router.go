package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KianaMei/website-crawler/internal/crawler"
	"github.com/KianaMei/website-crawler/internal/news"
)

// Crawlers 路由层依赖的各站点抓取器
type Crawlers struct {
	ACFIC     crawler.Crawler
	CFLP      crawler.Crawler
	NDRC      crawler.Crawler
	Transport crawler.Crawler
	Commerce  crawler.Crawler
	ChinaISA  crawler.Crawler
	AIDaily   crawler.Crawler
	CCTV      crawler.Crawler
	Paper     crawler.Crawler
}

// SectionLister 能汇报栏目结构的抓取器（目前只有钢协门户）
type SectionLister interface {
	Sections(includeSubtabs bool) map[string]crawler.Section
}

type Server struct {
	crawlers Crawlers
}

func NewServer(crawlers Crawlers) *Server {
	return &Server{crawlers: crawlers}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.GET("/get_acfic_policies", s.getACFICPolicies)
		api.GET("/get_cflp_news", s.getCFLPNews)
		api.GET("/get_ndrc_policies", s.getNDRCPolicies)
		api.GET("/get_transport_news", s.getTransportNews)
		api.GET("/get_commerce_news", s.getCommerceNews)
		api.GET("/get_ai_daily", s.getAIDaily)
		api.GET("/get_cctv_news", s.getCCTVNews)
		api.GET("/get_daily_paper_news", s.getDailyPaperNews)
		api.GET("/chinaisa/news", s.getChinaISANews)
		api.GET("/chinaisa/sections", s.getChinaISASections)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// 来源标签在路由层本地化，抓取器内部只用内部标签
var acficOriginMap = map[string]string{
	"ACFIC-Central":        "全联政策-中央",
	"ACFIC-Ministries":     "全联政策-部委",
	"ACFIC-Local":          "全联政策-地方",
	"ACFIC":                "全联政策",
	"ACFIC-Interpretation": "全联政策-解读",
}

var cflpOriginMap = map[string]string{
	"CFLP-Policy": "中国物流与采购联合会-政策法规",
	"CFLP-News":   "中国物流与采购联合会-资讯",
}

var (
	acficChannels = []string{"zy", "bw", "df", "qggsl", "jd"}
	cflpChannels  = []string{"zcfg", "zixun"}
	ndrcChannels  = []string{"fzggwl", "ghxwj", "ghwb", "gg", "tz"}
)

func (s *Server) getACFICPolicies(c *gin.Context) {
	channels, err := parseMultiSelect(c.Query("channels"), acficChannels, acficChannels, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "参数 channels " + err.Error()})
		return
	}
	resp := s.crawlers.ACFIC.GetNews(crawler.Options{
		Channels: channels,
		MaxPages: intQuery(c, "max_pages", 1, 1, 10),
		MaxItems: intQuery(c, "max_items", 5, 1, 100),
	})
	s.respond(c, resp, acficOriginMap)
}

func (s *Server) getCFLPNews(c *gin.Context) {
	channels, err := parseMultiSelect(c.Query("channels"), cflpChannels, cflpChannels,
		map[string]string{"dzsp": "zixun"})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "参数 channels " + err.Error()})
		return
	}
	resp := s.crawlers.CFLP.GetNews(crawler.Options{
		Channels:  channels,
		MaxPages:  intQuery(c, "max_pages", 1, 1, 10),
		MaxItems:  intQuery(c, "max_items", 8, 1, 100),
		SinceDays: intQuery(c, "since_days", 7, 1, 60),
	})
	s.respond(c, resp, cflpOriginMap)
}

func (s *Server) getNDRCPolicies(c *gin.Context) {
	categories, err := parseMultiSelect(c.Query("categories"), ndrcChannels, ndrcChannels, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "参数 categories " + err.Error()})
		return
	}
	resp := s.crawlers.NDRC.GetNews(crawler.Options{
		Channels: categories,
		MaxPages: intQuery(c, "max_pages", 1, 1, 10),
		MaxItems: intQuery(c, "max_items", 20, 1, 100),
	})
	s.respond(c, resp, nil)
}

func (s *Server) getTransportNews(c *gin.Context) {
	resp := s.crawlers.Transport.GetNews(crawler.Options{
		MaxPages: intQuery(c, "max_pages", 1, 1, 10),
	})
	s.respond(c, resp, nil)
}

func (s *Server) getCommerceNews(c *gin.Context) {
	resp := s.crawlers.Commerce.GetNews(crawler.Options{
		MaxPages: intQuery(c, "max_pages", 1, 1, 10),
	})
	s.respond(c, resp, nil)
}

func (s *Server) getAIDaily(c *gin.Context) {
	resp := s.crawlers.AIDaily.GetNews(crawler.Options{})
	s.respond(c, resp, nil)
}

func (s *Server) getCCTVNews(c *gin.Context) {
	resp := s.crawlers.CCTV.GetNews(crawler.Options{})
	s.respond(c, resp, nil)
}

func (s *Server) getDailyPaperNews(c *gin.Context) {
	source := strings.TrimSpace(c.DefaultQuery("source", "peopledaily"))
	resp := s.crawlers.Paper.GetNews(crawler.Options{
		Source:   source,
		MaxItems: intQuery(c, "max_items", 10, 1, 50),
		Date:     strings.TrimSpace(c.Query("date")),
	})
	if resp.Status != news.StatusOK || resp.NewsList == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "纸媒抓取失败: " + resp.ErrText()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getChinaISANews(c *gin.Context) {
	columns := splitCSV(c.Query("columns"))
	resp := s.crawlers.ChinaISA.GetNews(crawler.Options{
		Channels:       columns,
		Page:           intQuery(c, "page", 1, 1, 50),
		PageSize:       intQuery(c, "size", 20, 1, 100),
		MaxItems:       intQuery(c, "max", 60, 1, 1000),
		MaxPages:       intQuery(c, "max_pages", 3, 1, 10),
		SinceDays:      intQuery(c, "since_days", 0, 0, 60),
		IncludeSubtabs: boolQuery(c, "include_subtabs", true),
	})
	s.respond(c, resp, nil)
}

// sectionGroup 在分组列表里附带父栏目 ID
type sectionGroup struct {
	crawler.Section
	ID string `json:"id"`
}

// getChinaISASections 返回栏目与子栏目结构：sections 按栏目 ID 索引，
// groups 单列三个分组型父栏目，方便前端直接渲染
func (s *Server) getChinaISASections(c *gin.Context) {
	lister, ok := s.crawlers.ChinaISA.(SectionLister)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "该抓取器不支持栏目结构查询"})
		return
	}
	sections := lister.Sections(boolQuery(c, "include_subtabs", true))
	groups := make([]sectionGroup, 0, 3)
	for _, pid := range crawler.ChinaISAGroupColumns() {
		if sec, ok := sections[pid]; ok {
			groups = append(groups, sectionGroup{Section: sec, ID: pid})
		}
	}
	c.JSON(http.StatusOK, gin.H{"sections": sections, "groups": groups})
}

// respond 统一出口：OK 回 200 带 NewsResponse，其余一律 500 并内嵌错误码。
// 500 只留给抓取器级别的 ERROR/EMPTY，站点内容畸形但被处理掉的不算。
func (s *Server) respond(c *gin.Context, resp news.Response, originMap map[string]string) {
	if resp.Status != news.StatusOK || resp.NewsList == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "抓取失败: " + resp.ErrText()})
		return
	}
	if originMap != nil {
		for i := range resp.NewsList {
			if v, ok := originMap[resp.NewsList[i].Origin]; ok {
				resp.NewsList[i].Origin = v
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

func splitCSV(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
