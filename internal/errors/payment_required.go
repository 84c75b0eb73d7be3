package errors

import "net/http"

var ErrPaymentProcessing = &Exception{
	Kind:       KindPaymentRequired,
	Message:    "payment is still processing",
	StatusCode: http.StatusPaymentRequired,
}

var ErrPaymentRequired = &Exception{
	Kind:       KindPaymentRequired,
	Message:    "payment is required before completion",
	StatusCode: http.StatusPaymentRequired,
}
