package news

// News 统一后的新闻记录，字段与对外 JSON 契约一致
type News struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Origin      string `json:"origin"`
	Summary     string `json:"summary"`
	PublishDate string `json:"publish_date"` // YYYY-MM-DD，无法确定时为空串
}

// 响应状态标识
const (
	StatusOK    = "OK"
	StatusEmpty = "EMPTY"
	StatusError = "ERROR"
)

// 错误码
const (
	CodeNoData          = "NO_DATA"
	CodeNoRecent        = "NO_RECENT"
	CodeIndexNotFound   = "INDEX_NOT_FOUND"
	CodeInvalidSource   = "INVALID_SOURCE"
	CodeCrawlUnexpected = "CRAWL_UNEXPECTED_ERROR"
)

// Response 各站点抓取器统一的返回结构。
// 约定：status == OK 当且仅当 news_list 非空；非 OK 时 news_list 为 null。
type Response struct {
	NewsList []News  `json:"news_list"`
	Status   string  `json:"status"`
	ErrCode  *string `json:"err_code"`
	ErrInfo  *string `json:"err_info"`
}

// OK 构造成功响应；list 为空时退化为 NO_DATA，维持 OK ⟺ 非空 的不变式
func OK(list []News) Response {
	if len(list) == 0 {
		return Empty(CodeNoData, "no items")
	}
	return Response{NewsList: list, Status: StatusOK}
}

// Empty 构造 EMPTY 响应，code 说明为何为空（NO_DATA / NO_RECENT）
func Empty(code, info string) Response {
	return Response{Status: StatusEmpty, ErrCode: &code, ErrInfo: &info}
}

// Error 构造 ERROR 响应，用于被兜底捕获的意外异常
func Error(code, info string) Response {
	if code == "" {
		code = CodeCrawlUnexpected
	}
	return Response{Status: StatusError, ErrCode: &code, ErrInfo: &info}
}

// ErrText 拼出 "code info" 形式的错误说明，便于 API 层报错
func (r Response) ErrText() string {
	var code, info string
	if r.ErrCode != nil {
		code = *r.ErrCode
	}
	if r.ErrInfo != nil {
		info = *r.ErrInfo
	}
	if code == "" {
		return info
	}
	if info == "" {
		return code
	}
	return code + " " + info
}
