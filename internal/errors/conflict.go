package errors

import "net/http"

func NewConflict(message string) *Exception {
	return &Exception{
		Kind:       KindConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}
