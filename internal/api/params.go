package api

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// parseMultiSelect 解析 CSV 多选参数：去空格、别名映射、去重保序、校验合法值。
// 非法值返回带允许值列表的错误，由路由层转成 400。
func parseMultiSelect(raw string, allowed []string, defaults []string, aliases map[string]string) ([]string, error) {
	var values []string
	for _, part := range strings.Split(raw, ",") {
		v := strings.TrimSpace(part)
		if v == "" {
			continue
		}
		if mapped, ok := aliases[v]; ok {
			v = mapped
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return defaults, nil
	}

	allowedSet := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		allowedSet[v] = struct{}{}
	}

	seen := make(map[string]struct{}, len(values))
	var uniq, invalid []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		if _, ok := allowedSet[v]; !ok {
			invalid = append(invalid, v)
			continue
		}
		uniq = append(uniq, v)
	}

	if len(invalid) > 0 {
		sorted := append([]string(nil), allowed...)
		sort.Strings(sorted)
		return nil, fmt.Errorf("存在非法值: %s。允许取值: %s",
			strings.Join(invalid, ", "), strings.Join(sorted, ", "))
	}
	if len(uniq) == 0 {
		return defaults, nil
	}
	return uniq, nil
}

// intQuery 读取整型查询参数并夹到 [min, max]；解析失败用默认值
func intQuery(c *gin.Context, key string, def, min, max int) int {
	raw := c.DefaultQuery(key, strconv.Itoa(def))
	n, err := strconv.Atoi(raw)
	if err != nil {
		n = def
	}
	if n < min {
		n = min
	}
	if n > max {
		n = max
	}
	return n
}

func boolQuery(c *gin.Context, key string, def bool) bool {
	raw := strings.ToLower(c.Query(key))
	switch raw {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return def
}
