package fetcher

import (
	"strings"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"
)

const sampleText = "国家发展改革委关于完善现代物流体系建设的指导意见，促进国民经济循环效率提升。"

func gbBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := simplifiedchinese.GB18030.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("encode gb18030: %v", err)
	}
	return b
}

func TestNormalizeCharset(t *testing.T) {
	cases := map[string]string{
		"GB2312":   "gb18030",
		"gbk":      "gb18030",
		"GB-18030": "gb18030",
		"UTF8":     "utf-8",
		"utf-8":    "utf-8",
		`"utf-8"`:  "utf-8",
		"big5":     "big5",
	}
	for in, want := range cases {
		if got := normalizeCharset(in); got != want {
			t.Errorf("normalizeCharset(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCharsetCandidatesOrderAndDedup(t *testing.T) {
	html := []byte(`<html><head><meta charset="gb2312"></head><body>` + sampleText + `</body></html>`)
	got := charsetCandidates(html, "text/html; charset=gbk")

	if len(got) == 0 || got[0] != "gb18030" {
		t.Fatalf("meta 声明应排第一: %v", got)
	}
	seen := map[string]bool{}
	for _, cs := range got {
		if seen[cs] {
			t.Fatalf("候选列表存在重复 %q: %v", cs, got)
		}
		seen[cs] = true
	}
	if !seen["utf-8"] || !seen["gb18030"] {
		t.Fatalf("固定回退编码缺失: %v", got)
	}
}

func TestDecodeHTMLUTF8Page(t *testing.T) {
	html := `<html><head><meta charset="utf-8"></head><body>` + sampleText + `</body></html>`
	text, enc := DecodeHTML([]byte(html), "text/html; charset=utf-8")
	if enc != "utf-8" {
		t.Fatalf("encoding = %q, want utf-8", enc)
	}
	if !strings.Contains(text, sampleText) {
		t.Fatalf("decoded text lost content: %q", text)
	}
}

func TestDecodeHTMLGB2312MetaPage(t *testing.T) {
	// meta 声明 gb2312，字节实际是 GB18030（兼容超集），应零替换解出
	html := gbBytes(t, `<html><head><meta charset="gb2312"></head><body>`+sampleText+`</body></html>`)
	text, enc := DecodeHTML(html, "text/html")
	if enc != "gb18030" {
		t.Fatalf("encoding = %q, want gb18030", enc)
	}
	if strings.Contains(text, "�") {
		t.Fatalf("decoded text contains replacement chars: %q", text)
	}
	if !strings.Contains(text, sampleText) {
		t.Fatalf("decoded text lost content: %q", text)
	}
}

func TestDecodeHTMLLyingHeader(t *testing.T) {
	// Content-Type 谎称 utf-8 且页面无 meta，按替换字符计数仍应选中 GB18030
	html := gbBytes(t, `<html><body>`+strings.Repeat(sampleText, 4)+`</body></html>`)
	text, _ := DecodeHTML(html, "text/html; charset=utf-8")
	if !strings.Contains(text, sampleText) {
		t.Fatalf("decoded text lost content: %q", text)
	}
}

func TestMetaCharsetScansHeadOnly(t *testing.T) {
	// charset 声明埋在扫描窗口之外时不应被采信
	pad := strings.Repeat("x", metaScanLimit)
	html := []byte("<html>" + pad + `<meta charset="gb2312">`)
	if got := metaCharset(html); got != "" {
		t.Fatalf("metaCharset = %q, want empty", got)
	}
}
