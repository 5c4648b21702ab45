package crawler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KianaMei/website-crawler/internal/news"
)

func newCCTVServer(indexHTML string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/index.shtml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexHTML))
	})
	mux.HandleFunc("/art/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><div class="content_area">
			<p>央视网消息：</p><p>今天的节目内容。</p>
		</div></body></html>`))
	})
	return httptest.NewServer(mux)
}

func newTestCCTV(srv *httptest.Server) *CCTVCrawler {
	c := NewCCTVCrawler(testFetcher())
	c.indexURL = srv.URL + "/index.shtml"
	c.now = fixedNow
	return c
}

func TestCCTVSkipsLeadItemAndStripsPrefix(t *testing.T) {
	srv := newCCTVServer(`<html><body><ul id="content">
		<li><a href="/art/full.html" title="[视频]新闻联播完整版"></a></li>
		<li><a href="/art/1.html" title="[视频]今日头条要闻"></a></li>
		<li><a href="/art/2.html">国内联播快讯</a></li>
		<li><a href="/art/3.html">国内联播快讯</a></li>
	</ul></body></html>`)
	defer srv.Close()

	resp := newTestCCTV(srv).GetNews(Options{})
	if resp.Status != news.StatusOK {
		t.Fatalf("status = %s (%s), want OK", resp.Status, resp.ErrText())
	}
	// 首条整期视频被跳过，同题条目只留一条
	if len(resp.NewsList) != 2 {
		t.Fatalf("NewsList = %+v, want 2 条", resp.NewsList)
	}
	first := resp.NewsList[0]
	if first.Title != "今日头条要闻" {
		t.Fatalf("Title = %q，应去掉 [视频] 前缀", first.Title)
	}
	if first.Origin != "新闻联播" {
		t.Fatalf("Origin = %q", first.Origin)
	}
	// fixedNow 对应北京时间 2025-03-05，播出日是前一天
	if first.PublishDate != "2025-03-04" {
		t.Fatalf("PublishDate = %q", first.PublishDate)
	}
	if !strings.Contains(first.Summary, "今天的节目内容") {
		t.Fatalf("Summary = %q", first.Summary)
	}
	// 同题去重后链接以后出现的为准
	if got := resp.NewsList[1]; !strings.HasSuffix(got.URL, "/art/3.html") {
		t.Fatalf("URL = %q", got.URL)
	}
}

func TestCCTVMissingIndexIsError(t *testing.T) {
	srv := newCCTVServer(`<html><body><div>改版后的页面</div></body></html>`)
	defer srv.Close()

	resp := newTestCCTV(srv).GetNews(Options{})
	if resp.Status != news.StatusError {
		t.Fatalf("status = %s, want ERROR", resp.Status)
	}
	if resp.ErrCode == nil || *resp.ErrCode != news.CodeIndexNotFound {
		t.Fatalf("ErrCode = %v", resp.ErrCode)
	}
}

func TestCCTVNoTranscriptIsNoData(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/index.shtml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><ul id="content">
			<li><a href="/art/full.html" title="[视频]新闻联播完整版"></a></li>
			<li><a href="/art/1.html" title="[视频]没有文字稿的条目"></a></li>
		</ul></body></html>`))
	})
	mux.HandleFunc("/art/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div class="video_only">纯视频页</div></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp := newTestCCTV(srv).GetNews(Options{})
	if resp.Status != news.StatusEmpty {
		t.Fatalf("status = %s, want EMPTY", resp.Status)
	}
	if resp.ErrCode == nil || *resp.ErrCode != news.CodeNoData {
		t.Fatalf("ErrCode = %v", resp.ErrCode)
	}
}
