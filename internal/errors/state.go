package errors

import "net/http"

func NewState(message string) *Exception {
	return &Exception{
		Kind:       KindState,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}
