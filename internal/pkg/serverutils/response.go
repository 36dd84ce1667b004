package serverutils

type Response[T any] struct {
	Success   bool   `json:"success"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorKind string `json:"error_kind,omitempty"`
	Data      T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) *Response[T] {
	return &Response[T]{
		Success: true,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, kind string, message string) *Response[any] {
	return &Response[any]{
		Success:   false,
		Code:      code,
		Message:   message,
		ErrorKind: kind,
	}
}
