package fetcher

import (
	"regexp"
	"slices"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// 目标站点混用 UTF-8 与遗留 GBK/GB2312，单一信号（比如 HTTP 头）经常骗人。
// 这里把各路信号汇成候选列表，逐个试解码并数替换字符，取最干净的那个。

const metaScanLimit = 4096

var (
	metaCharsetRe   = regexp.MustCompile(`(?i)charset\s*=\s*["']?([a-zA-Z0-9_\-]+)`)
	headerCharsetRe = regexp.MustCompile(`(?i)charset=([^;\s]+)`)
)

// normalizeCharset 统一编码别名。GBK/GB2312 归一到兼容超集 GB18030，
// 老站点声明 gb2312 实际混入 GBK 扩展字的情况很常见。
func normalizeCharset(cs string) string {
	cs = strings.ToLower(strings.Trim(strings.TrimSpace(cs), `"'`))
	switch cs {
	case "gb2312", "gb-2312", "gbk", "gb18030", "gb-18030":
		return "gb18030"
	case "utf8", "utf-8":
		return "utf-8"
	}
	return cs
}

// metaCharset 用正则扫 HTML 头部字节里的 charset 声明。
// 此时还没确定编码、文档未必能解析，所以只能在原始字节上做。
func metaCharset(raw []byte) string {
	head := raw
	if len(head) > metaScanLimit {
		head = head[:metaScanLimit]
	}
	if m := metaCharsetRe.FindSubmatch(head); m != nil {
		return normalizeCharset(string(m[1]))
	}
	return ""
}

func headerCharset(contentType string) string {
	if m := headerCharsetRe.FindStringSubmatch(contentType); m != nil {
		return normalizeCharset(m[1])
	}
	return ""
}

// apparentCharset 对字节做统计探测，对应 requests 的 apparent_encoding
func apparentCharset(raw []byte) string {
	res, err := chardet.NewHtmlDetector().DetectBest(raw)
	if err != nil || res == nil {
		return ""
	}
	return normalizeCharset(res.Charset)
}

// charsetCandidates 按优先级构造去重后的候选编码列表：
// HTML meta -> 统计探测 -> Content-Type 头 -> 固定回退（utf-8、gb18030）
func charsetCandidates(raw []byte, contentType string) []string {
	var out []string
	add := func(cs string) {
		if cs != "" && !slices.Contains(out, cs) {
			out = append(out, cs)
		}
	}
	add(metaCharset(raw))
	add(apparentCharset(raw))
	add(headerCharset(contentType))
	add("utf-8")
	add("gb18030")
	return out
}

// DecodeHTML 逐个候选解码并统计 U+FFFD 个数，取最少者，数到 0 提前收工。
// 候选全军覆没时退回 UTF-8 并丢弃非法字节，解码环节绝不向上抛错。
func DecodeHTML(raw []byte, contentType string) (text string, encodingUsed string) {
	bestBad := -1
	for _, cs := range charsetCandidates(raw, contentType) {
		decoded, bad, err := decodeAs(raw, cs)
		if err != nil {
			continue
		}
		if bestBad == -1 || bad < bestBad {
			text, encodingUsed, bestBad = decoded, cs, bad
			if bad == 0 {
				break
			}
		}
	}
	if bestBad == -1 {
		return strings.ToValidUTF8(string(raw), ""), "utf-8"
	}
	return text, encodingUsed
}

// decodeAs 以替换模式解码并返回替换字符计数
func decodeAs(raw []byte, label string) (string, int, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", 0, err
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", 0, err
	}
	s := string(decoded)
	return s, strings.Count(s, "�"), nil
}
