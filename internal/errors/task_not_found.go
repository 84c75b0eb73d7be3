package errors

import "net/http"

var ErrTaskNotFound = &Exception{
	Kind:       KindNotFound,
	Message:    "task not found",
	StatusCode: http.StatusNotFound,
}

var ErrBidNotFound = &Exception{
	Kind:       KindNotFound,
	Message:    "bid not found",
	StatusCode: http.StatusNotFound,
}

var ErrUserNotFound = &Exception{
	Kind:       KindNotFound,
	Message:    "user not found",
	StatusCode: http.StatusNotFound,
}
