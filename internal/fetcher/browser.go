package fetcher

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// Browser 基于 chromedp 的兜底抓取。个别站点（商务部）列表由前端渲染，
// 静态抓取拿不到 DOM，此时导航真实浏览器再取整页 HTML。
// 整个进程复用一个 headless 实例，每次抓取挂独立的超时上下文。
type Browser struct {
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	timeout       time.Duration
}

// NewBrowser 启动 headless 浏览器上下文并预热，避免首个请求耗时过长
func NewBrowser(timeout time.Duration) (*Browser, error) {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), chromedp.DefaultExecAllocatorOptions[:]...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, err
	}

	return &Browser{
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		timeout:       timeout,
	}, nil
}

// Close 关闭浏览器实例
func (b *Browser) Close() {
	b.cancelBrowser()
	b.cancelAlloc()
}

// FetchRenderedHTML 导航到页面，等待 waitSelector 出现后返回渲染后的整页 HTML。
// waitSelector 为空时只等 body 就绪。
func (b *Browser) FetchRenderedHTML(url, waitSelector string) (string, error) {
	ctx, cancel := context.WithTimeout(b.browserCtx, b.timeout)
	defer cancel()

	actions := []chromedp.Action{chromedp.Navigate(url)}
	if waitSelector != "" {
		actions = append(actions, chromedp.WaitVisible(waitSelector, chromedp.ByQuery))
	} else {
		actions = append(actions, chromedp.WaitReady("body", chromedp.ByQuery))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(ctx, actions...); err != nil {
		return "", err
	}
	return html, nil
}
