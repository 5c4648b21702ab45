package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/KianaMei/website-crawler/internal/crawler"
	"github.com/KianaMei/website-crawler/internal/news"
)

// stubCrawler 固定返回预设响应，并记录最近一次的调用参数
type stubCrawler struct {
	resp news.Response
	last crawler.Options
}

func (s *stubCrawler) Name() string { return "stub" }

func (s *stubCrawler) GetNews(opts crawler.Options) news.Response {
	s.last = opts
	return s.resp
}

func newTestRouter(stub *stubCrawler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewServer(Crawlers{
		ACFIC:     stub,
		CFLP:      stub,
		NDRC:      stub,
		Transport: stub,
		Commerce:  stub,
		ChinaISA:  stub,
		AIDaily:   stub,
		CCTV:      stub,
		Paper:     stub,
	}).RegisterRoutes(r)
	return r
}

func doGet(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&stubCrawler{resp: news.Empty(news.CodeNoData, "")})
	w := doGet(r, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
}

func TestOKResponseLocalizesOrigin(t *testing.T) {
	stub := &stubCrawler{resp: news.OK([]news.News{
		{Title: "标题", URL: "http://x/1", Origin: "ACFIC-Central", PublishDate: "2025-03-05"},
	})}
	r := newTestRouter(stub)

	w := doGet(r, "/api/get_acfic_policies?channels=zy&max_items=9")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
	}

	var resp news.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != news.StatusOK || len(resp.NewsList) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.NewsList[0].Origin != "全联政策-中央" {
		t.Fatalf("Origin = %q, 应本地化为中文标签", resp.NewsList[0].Origin)
	}

	if got := stub.last; len(got.Channels) != 1 || got.Channels[0] != "zy" || got.MaxItems != 9 {
		t.Fatalf("透传参数不对: %+v", got)
	}
}

func TestEmptyResponseIs500(t *testing.T) {
	stub := &stubCrawler{resp: news.Empty(news.CodeNoRecent, "今天无更新")}
	r := newTestRouter(stub)

	w := doGet(r, "/api/get_cflp_news")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), news.CodeNoRecent) {
		t.Fatalf("body 应包含错误码: %s", w.Body.String())
	}
}

func TestErrorResponseIs500(t *testing.T) {
	stub := &stubCrawler{resp: news.Error(news.CodeCrawlUnexpected, "boom")}
	r := newTestRouter(stub)

	w := doGet(r, "/api/get_ndrc_policies")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d, want 500", w.Code)
	}
}

func TestInvalidChannelIs400(t *testing.T) {
	stub := &stubCrawler{resp: news.OK([]news.News{{Title: "x", URL: "u"}})}
	r := newTestRouter(stub)

	w := doGet(r, "/api/get_acfic_policies?channels=nope")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", w.Code)
	}
}

func TestCFLPAliasAccepted(t *testing.T) {
	stub := &stubCrawler{resp: news.OK([]news.News{{Title: "x", URL: "u", Origin: "CFLP-News"}})}
	r := newTestRouter(stub)

	w := doGet(r, "/api/get_cflp_news?channels=dzsp")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
	}
	if len(stub.last.Channels) != 1 || stub.last.Channels[0] != "zixun" {
		t.Fatalf("别名应映射到真实栏目: %+v", stub.last.Channels)
	}
}

func TestChinaISAQueryParams(t *testing.T) {
	stub := &stubCrawler{resp: news.OK([]news.News{{Title: "x", URL: "u"}})}
	r := newTestRouter(stub)

	w := doGet(r, "/api/chinaisa/news?columns=aa,bb&page=2&size=10&include_subtabs=false")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
	}
	got := stub.last
	if len(got.Channels) != 2 || got.Channels[0] != "aa" || got.Channels[1] != "bb" {
		t.Fatalf("Channels = %+v", got.Channels)
	}
	if got.Page != 2 || got.PageSize != 10 || got.IncludeSubtabs {
		t.Fatalf("参数透传不对: %+v", got)
	}
}

func TestDailyPaperNewsParams(t *testing.T) {
	stub := &stubCrawler{resp: news.OK([]news.News{{Title: "x", URL: "u", Origin: "人民日报"}})}
	r := newTestRouter(stub)

	w := doGet(r, "/api/get_daily_paper_news?source=qiushi&max_items=5&date=2025-03-01")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
	}
	got := stub.last
	if got.Source != "qiushi" || got.MaxItems != 5 || got.Date != "2025-03-01" {
		t.Fatalf("参数透传不对: %+v", got)
	}

	// 缺省报纸是人民日报
	doGet(r, "/api/get_daily_paper_news")
	if stub.last.Source != "peopledaily" || stub.last.MaxItems != 10 {
		t.Fatalf("默认参数不对: %+v", stub.last)
	}
}

func TestDailyPaperNewsErrorIs500(t *testing.T) {
	stub := &stubCrawler{resp: news.Error(news.CodeInvalidSource, "不支持的报纸")}
	r := newTestRouter(stub)

	w := doGet(r, "/api/get_daily_paper_news?source=nope")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), news.CodeInvalidSource) {
		t.Fatalf("body 应包含错误码: %s", w.Body.String())
	}
}

func TestCCTVRoute(t *testing.T) {
	stub := &stubCrawler{resp: news.OK([]news.News{
		{Title: "今日头条要闻", URL: "http://x/1", Origin: "新闻联播", PublishDate: "2025-03-04"},
	})}
	r := newTestRouter(stub)

	w := doGet(r, "/api/get_cctv_news")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
	}
	var resp news.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.NewsList) != 1 || resp.NewsList[0].Origin != "新闻联播" {
		t.Fatalf("resp = %+v", resp)
	}
}

// stubSectionCrawler 在 stubCrawler 基础上实现栏目结构查询
type stubSectionCrawler struct {
	stubCrawler
	sections map[string]crawler.Section
	lastArg  bool
}

func (s *stubSectionCrawler) Sections(includeSubtabs bool) map[string]crawler.Section {
	s.lastArg = includeSubtabs
	return s.sections
}

func TestChinaISASectionsRoute(t *testing.T) {
	parent := crawler.ChinaISAGroupColumns()[0]
	stub := &stubSectionCrawler{sections: map[string]crawler.Section{
		parent: {
			Name:    "统计发布",
			Subtabs: []crawler.Subtab{{ID: strings.Repeat("ab", 32), Name: "生产经营"}},
		},
	}}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewServer(Crawlers{ChinaISA: stub}).RegisterRoutes(r)

	w := doGet(r, "/api/chinaisa/sections?include_subtabs=false")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, body = %s", w.Code, w.Body.String())
	}
	if stub.lastArg {
		t.Fatal("include_subtabs=false 应透传给抓取器")
	}

	var body struct {
		Sections map[string]crawler.Section `json:"sections"`
		Groups   []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"groups"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Sections) != 1 {
		t.Fatalf("sections = %+v", body.Sections)
	}
	if len(body.Groups) != 1 || body.Groups[0].ID != parent || body.Groups[0].Name != "统计发布" {
		t.Fatalf("groups = %+v", body.Groups)
	}
}

func TestParseMultiSelect(t *testing.T) {
	allowed := []string{"zy", "bw"}
	defaults := []string{"zy"}

	got, err := parseMultiSelect("", allowed, defaults, nil)
	if err != nil || len(got) != 1 || got[0] != "zy" {
		t.Fatalf("空入参应回默认值: %v %v", got, err)
	}

	got, err = parseMultiSelect(" bw , zy , bw ", allowed, defaults, nil)
	if err != nil || len(got) != 2 || got[0] != "bw" || got[1] != "zy" {
		t.Fatalf("应去空格去重保序: %v %v", got, err)
	}

	if _, err = parseMultiSelect("zz", allowed, defaults, nil); err == nil {
		t.Fatal("非法值应报错")
	}
}

func TestIntQueryClamps(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var got int
	r.GET("/t", func(c *gin.Context) {
		got = intQuery(c, "n", 5, 1, 10)
		c.Status(http.StatusOK)
	})

	for _, tc := range []struct {
		query string
		want  int
	}{
		{"", 5},
		{"?n=3", 3},
		{"?n=0", 1},
		{"?n=99", 10},
		{"?n=abc", 5},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t"+tc.query, nil))
		if got != tc.want {
			t.Errorf("intQuery(%q) = %d, want %d", tc.query, got, tc.want)
		}
	}
}
