package fetcher

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(retries int) *Client {
	return New(Config{
		Timeout:     5 * time.Second,
		Retries:     retries,
		BackoffBase: time.Millisecond,
	})
}

func TestFetchHTMLRejectsInvalidURL(t *testing.T) {
	c := testClient(1)
	for _, raw := range []string{"", "not-a-url", "example.com/path", "http://"} {
		_, err := c.FetchHTML(raw)
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("FetchHTML(%q) err = %v, want *FetchError", raw, err)
		}
		if fe.Code != CodeInvalidURL {
			t.Fatalf("FetchHTML(%q) code = %q, want %q", raw, fe.Code, CodeInvalidURL)
		}
	}
}

func TestFetchHTMLRetriesThenSucceeds(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>终于成功</body></html>"))
	}))
	defer srv.Close()

	c := testClient(3)
	text, err := c.FetchHTML(srv.URL)
	if err != nil {
		t.Fatalf("FetchHTML error: %v", err)
	}
	if !strings.Contains(text, "终于成功") {
		t.Fatalf("unexpected body: %q", text)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}
}

func TestFetchHTMLExhaustsRetries(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(2)
	_, err := c.FetchHTML(srv.URL)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if fe.Code != CodeNetwork {
		t.Fatalf("code = %q, want %q", fe.Code, CodeNetwork)
	}
	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Fatalf("attempts = %d, want 2", got)
	}
}

func TestFetchHTMLDecodesGB2312Page(t *testing.T) {
	body := gbBytes(t, `<html><head><meta charset="gb2312"></head><body>`+sampleText+`</body></html>`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html") // 不带 charset，逼出 meta 探测
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c := testClient(1)
	text, err := c.FetchHTML(srv.URL)
	if err != nil {
		t.Fatalf("FetchHTML error: %v", err)
	}
	if !strings.Contains(text, sampleText) {
		t.Fatalf("decoded text lost content: %q", text)
	}
}

func TestFetchHTMLWithHeadersOverridesUA(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	c := testClient(1)
	if _, err := c.FetchHTMLWithHeaders(srv.URL, map[string]string{"User-Agent": "custom-agent"}); err != nil {
		t.Fatalf("FetchHTMLWithHeaders error: %v", err)
	}
	if gotUA != "custom-agent" {
		t.Fatalf("User-Agent = %q, want custom-agent", gotUA)
	}
}

func TestIsValidURL(t *testing.T) {
	valid := []string{"http://example.com", "https://www.acfic.org.cn/zcsd/index.html"}
	invalid := []string{"", "ftp", "://nohost", "/relative/path"}
	for _, u := range valid {
		if !IsValidURL(u) {
			t.Errorf("IsValidURL(%q) = false, want true", u)
		}
	}
	for _, u := range invalid {
		if IsValidURL(u) {
			t.Errorf("IsValidURL(%q) = true, want false", u)
		}
	}
}
