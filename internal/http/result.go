package httpapi

// Result 与前端 Axios 拦截器约定保持一致
// - code: 2000 = success
// - type: 'success' | 'error' | 'warning'
// - message: string
// - result: any
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
	// ResultForbidden 使用 code=60403 + HTTP 403（权限不足时前端提示只读）
	ResultForbidden = 60403
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: nil}
}

func Forbidden(message string) Result[any] {
	return Result[any]{Code: ResultForbidden, Type: "error", Message: message, Result: nil}
}
