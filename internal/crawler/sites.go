package crawler

// 站点选择器表。每个站点的列表/详情 DOM 各不相同，这里只放数据。

// 协会/政府站点常见的正文容器，顺序即优先级
var commonDetailSelectors = []string{
	"div.TRS_Editor",
	"div.zhengwen",
	"div.article",
	"div.content",
	"#zoom",
	"article",
}

// ACFICSite 全国工商联政策频道（中央/部委/地方/全联/解读）
func ACFICSite() Site {
	mkChannel := func(id, name, origin string) Channel {
		return Channel{
			ID:          id,
			Name:        name,
			Origin:      origin,
			FirstPage:   "https://www.acfic.org.cn/zcsd/" + id + "/index.html",
			PagePattern: "https://www.acfic.org.cn/zcsd/" + id + "/index_%d.html",
			PageBase:    0, // 第 2 页是 index_1.html
		}
	}
	return Site{
		ID:   "acfic",
		Name: "全国工商联",
		Channels: []Channel{
			mkChannel("zy", "中央", "ACFIC-Central"),
			mkChannel("bw", "部委", "ACFIC-Ministries"),
			mkChannel("df", "地方", "ACFIC-Local"),
			mkChannel("qggsl", "全联", "ACFIC"),
			mkChannel("jd", "解读", "ACFIC-Interpretation"),
		},
		ListSelectors: []ListSelector{
			// 标题在 a 的第一个 span，日期在 span.time
			{Container: "div.right_qlgz", Item: "ul li", Title: "a span", Date: "span.time"},
			{Item: "ul li", Date: "span.time"},
		},
		DetailSelectors: commonDetailSelectors,
	}
}

// CFLPSite 中国物流与采购联合会（政策法规/资讯）。
// 资讯频道混有企业宣传类内容，按关键词降权。
func CFLPSite() Site {
	return Site{
		ID:   "cflp",
		Name: "中国物流与采购联合会",
		Channels: []Channel{
			{
				ID:          "zcfg",
				Name:        "政策法规",
				Origin:      "CFLP-Policy",
				FirstPage:   "http://www.chinawuliu.com.cn/zcfg/",
				PagePattern: "http://www.chinawuliu.com.cn/zcfg/index_%d.html",
				PageBase:    1, // 第 2 页是 index_2.html
				ListSelectors: []ListSelector{
					{Item: "ul.list-box li", Date: "span.time"},
					{Item: "li", Date: "span.time"},
				},
			},
			{
				ID:          "zixun",
				Name:        "资讯",
				Origin:      "CFLP-News",
				FirstPage:   "http://www.chinawuliu.com.cn/zixun/",
				PagePattern: "http://www.chinawuliu.com.cn/zixun/index_%d.html",
				PageBase:    1,
				ListSelectors: []ListSelector{
					{Container: "div.ul-list", Item: "ul.new-ul > li", Date: "p.new-time span"},
					{Item: "ul.list-box li", Date: "span.time"},
				},
			},
		},
		Aliases:         map[string]string{"dzsp": "zixun"},
		DetailSelectors: commonDetailSelectors,
		DemoteKeywords: []string{
			"qiyexinxi", "qiye", "gongsi", "企业信息", "企业", "公司", "品牌",
			"zidonghua", "automation", "自动化", "工业自动化", "机器人", "工业机器人",
			"wuliu", "zhuangbei", "shebei", "物流装备", "装备", "设备", "泵", "agv", "叉车", "移动",
			"/zixun/dzsp/", "dzsp",
		},
	}
}

// NDRCSite 国家发展改革委政策发布栏目
func NDRCSite() Site {
	mkChannel := func(id, name string) Channel {
		return Channel{
			ID:          id,
			Name:        name,
			Origin:      "国家发展改革委",
			FirstPage:   "https://www.ndrc.gov.cn/xxgk/zcfb/" + id + "/index.html",
			PagePattern: "https://www.ndrc.gov.cn/xxgk/zcfb/" + id + "/index_%d.html",
			PageBase:    0,
		}
	}
	return Site{
		ID:   "ndrc",
		Name: "国家发展改革委",
		Channels: []Channel{
			mkChannel("fzggwl", "发展改革委令"),
			mkChannel("ghxwj", "规范性文件"),
			mkChannel("ghwb", "规划文本"),
			mkChannel("gg", "公告"),
			mkChannel("tz", "通知"),
		},
		ListSelectors: []ListSelector{
			{Container: "ul.u-list", Item: "li", Date: "span"},
			{Item: "ul li", Date: "span"},
		},
		DetailSelectors: commonDetailSelectors,
	}
}

// MOTSite 交通运输部交通要闻
func MOTSite() Site {
	return Site{
		ID:   "mot",
		Name: "交通运输部",
		Channels: []Channel{
			{
				ID:          "jtyw",
				Name:        "交通要闻",
				Origin:      "交通运输部",
				FirstPage:   "https://www.mot.gov.cn/jiaotongyaowen/",
				PagePattern: "https://www.mot.gov.cn/jiaotongyaowen/index_%d.html",
				PageBase:    0,
			},
		},
		ListSelectors: []ListSelector{
			// 条目本身就是链接，日期挂在 badge 上
			{Container: "div.list-group", Item: "a.list-group-item", Date: "span.badge"},
			{Item: "ul li", Date: "span"},
		},
		DetailSelectors: commonDetailSelectors,
	}
}
