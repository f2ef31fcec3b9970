package middleware

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/MorseWayne/cherry_market/internal/resp"
)

// timeoutBody 超时响应体，与 resp 信封格式一致
var timeoutBody = func() string {
	b, _ := json.Marshal(resp.Response[any]{Code: resp.CodeTimeout, Message: "request timeout"})
	return string(b)
}()

// Timeout 为请求上下文设置截止时间；超时后由 http.TimeoutHandler 返回 503 与统一错误体
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.TimeoutHandler(next, d, timeoutBody)
	}
}
