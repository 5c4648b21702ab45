package fetcher

import (
	"crypto/tls"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// 模拟常规浏览器的请求头，部分政府站点对非浏览器 UA 直接回空页
var defaultHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "zh-CN,zh;q=0.8,en-US;q=0.5,en;q=0.3",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// 抓取失败的错误码
const (
	CodeInvalidURL = "FETCH_INVALID_URL"
	CodeNetwork    = "FETCH_NETWORK_ERROR"
)

// FetchError 抓取失败的类型化错误，Code 区分 URL 校验失败与网络层失败
type FetchError struct {
	Code string
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Code, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Config 抓取客户端配置，由调用方显式传入而非读全局状态
type Config struct {
	Timeout     time.Duration // 单次请求超时
	Retries     int           // 总尝试次数，>=1
	BackoffBase time.Duration // 重试基础等待，实际等待 base*(1+jitter)，jitter∈[0,0.5)
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.Retries < 1 {
		c.Retries = 3
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = time.Second
	}
	return c
}

// Client 带编码探测的 HTML 抓取客户端。一个抓取器实例复用一个 Client，
// 底层连接池跟着复用；Client 自身无可变状态，方法可并发调用。
type Client struct {
	rc  *resty.Client
	cfg Config
}

// New 构造抓取客户端。不继承环境代理；按策略关闭 TLS 证书校验——目标站点
// 大量使用过期或自签证书，这是有意为之的信任取舍。
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()

	transport := &http.Transport{
		Proxy:           nil,
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}

	rc := resty.New().
		SetTransport(transport).
		SetTimeout(cfg.Timeout).
		SetHeaders(defaultHeaders).
		SetRetryCount(cfg.Retries - 1).
		SetRetryAfter(func(*resty.Client, *resty.Response) (time.Duration, error) {
			return jitterBackoff(cfg.BackoffBase), nil
		}).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r == nil || !r.IsSuccess()
		})

	return &Client{rc: rc, cfg: cfg}
}

// jitterBackoff 返回 base*(1+j)，j∈[0,0.5)
func jitterBackoff(base time.Duration) time.Duration {
	return time.Duration(float64(base) * (1 + rand.Float64()*0.5))
}

// FetchHTML 抓取 URL 并解码为文本。非法 URL 不发起网络请求；
// 网络失败在内部重试，重试耗尽后返回 FetchError。
func (c *Client) FetchHTML(rawURL string) (string, error) {
	return c.FetchHTMLWithHeaders(rawURL, nil)
}

// FetchHTMLWithHeaders 同 FetchHTML，可覆盖部分请求头
func (c *Client) FetchHTMLWithHeaders(rawURL string, headers map[string]string) (string, error) {
	if !IsValidURL(rawURL) {
		return "", &FetchError{Code: CodeInvalidURL, URL: rawURL, Err: fmt.Errorf("url must carry scheme and host")}
	}

	req := c.rc.R()
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(rawURL)
	if err != nil {
		return "", &FetchError{Code: CodeNetwork, URL: rawURL, Err: err}
	}
	if !resp.IsSuccess() {
		return "", &FetchError{Code: CodeNetwork, URL: rawURL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode())}
	}

	text, enc := DecodeHTML(resp.Body(), resp.Header().Get("Content-Type"))
	log.Printf("fetched %s: %d bytes, encoding=%s", rawURL, len(resp.Body()), enc)
	return text, nil
}

// IsValidURL 基本语法校验：必须带 scheme 和 host
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
