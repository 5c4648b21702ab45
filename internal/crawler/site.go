package crawler

import "fmt"

// 每个站点的 DOM 结构都不同，但抓取流程完全一致。选择器表是配置数据，
// 不是代码：加一个站点只需要加一份 Site，引擎不动。

// ListSelector 一组列表页选择器。引擎按声明顺序逐组尝试，
// 取第一组能解析出条目的；主容器缺失不算错误，换下一组就是。
type ListSelector struct {
	Container string // 列表容器，空则在整页上找
	Item      string // 条目（相对容器）
	Title     string // 标题（相对条目），空则依次回退到 a 的 title 属性、a 文本
	Date      string // 日期单元（相对条目），空或没取到时用条目全文兜底
}

// Channel 站点下的一个栏目（逻辑内容分类）
type Channel struct {
	ID          string
	Name        string
	Origin      string // 人类可读的来源标签，非 URL
	FirstPage   string
	PagePattern string // 翻页 URL 模式，%d 为页序号；空则不翻页
	PageBase    int    // 第 2 页对应的序号偏移：ACFIC 是 index_1.html，CFLP 是 index_2.html
	// 栏目级选择器，空则用站点级的
	ListSelectors []ListSelector
}

// Site 站点配置
type Site struct {
	ID              string
	Name            string
	Channels        []Channel // 声明顺序即跨栏目聚合的优先级
	DefaultChannels []string  // 调用方未指定时的默认栏目
	Aliases         map[string]string
	ListSelectors   []ListSelector
	DetailSelectors []string // 详情页正文容器候选，按顺序尝试
	DemoteKeywords  []string // 命中（标题+URL）则降权的关键词
}

func (s Site) channelByID(id string) (Channel, bool) {
	for _, ch := range s.Channels {
		if ch.ID == id {
			return ch, true
		}
	}
	return Channel{}, false
}

// resolveChannels 解析请求的栏目列表：应用别名、校验合法性，
// 为空时落到默认栏目。返回顺序遵循站点声明顺序（聚合优先级）。
func (s Site) resolveChannels(requested []string) ([]Channel, error) {
	want := requested
	if len(want) == 0 {
		want = s.DefaultChannels
	}
	if len(want) == 0 {
		for _, ch := range s.Channels {
			want = append(want, ch.ID)
		}
	}

	asked := make(map[string]struct{}, len(want))
	for _, id := range want {
		if mapped, ok := s.Aliases[id]; ok {
			id = mapped
		}
		if _, ok := s.channelByID(id); !ok {
			return nil, fmt.Errorf("unsupported channel %q for site %s", id, s.ID)
		}
		asked[id] = struct{}{}
	}

	var out []Channel
	for _, ch := range s.Channels {
		if _, ok := asked[ch.ID]; ok {
			out = append(out, ch)
		}
	}
	return out, nil
}

// listSelectorsFor 栏目级选择器优先，否则用站点级
func (s Site) listSelectorsFor(ch Channel) []ListSelector {
	if len(ch.ListSelectors) > 0 {
		return ch.ListSelectors
	}
	return s.ListSelectors
}
