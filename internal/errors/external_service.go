package errors

import "net/http"

func NewExternalService(message string) *Exception {
	return &Exception{
		Kind:       KindExternalService,
		Message:    message,
		StatusCode: http.StatusBadGateway,
	}
}
