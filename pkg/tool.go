package pkg

import (
	"slices"
	"strings"
)

// NormalizeChoice 設定值去空白轉小寫後比對選項，回傳正規化後的值
func NormalizeChoice(val string, options ...string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(val))
	if !slices.Contains(options, v) {
		return v, false
	}
	return v, true
}
