package http

import (
	"time"

	"github.com/labstack/echo/v4"

	middleware "github.com/delloop-lab/taskorilla-sub000/internal/http/middlewares"
)

func Register(e *echo.Echo, h *Handler, rateLimitPerMinute int) {
	e.Use(middleware.RateLimiter(rateLimitPerMinute, time.Minute))

	e.POST("/tasks", h.CreateTask)
	e.GET("/tasks", h.ListTasks)
	e.GET("/tasks/:id", h.GetTask)
	e.DELETE("/tasks/:id", h.DeleteTask)
	e.POST("/tasks/:id/archive", h.ArchiveTask)

	e.POST("/tasks/:id/bids", h.SubmitBid)
	e.GET("/tasks/:id/bids", h.ListBids)
	e.POST("/tasks/:id/bids/:bidID/accept", h.AcceptBid)
	e.POST("/tasks/:id/assignment/cancel", h.CancelAssignment)

	e.POST("/tasks/:id/updates", h.PostUpdate)
	e.GET("/tasks/:id/updates", h.Timeline)
	e.POST("/tasks/:id/revisions", h.RequestRevision)
	e.POST("/tasks/:id/revisions/complete", h.CompleteRevision)
	e.POST("/tasks/:id/work-complete", h.MarkWorkComplete)

	e.POST("/tasks/:id/checkout", h.InitiateCheckout)
	e.GET("/tasks/:id/payment/reconcile", h.Reconcile)
	e.POST("/payments/confirm", h.ConfirmPayment)

	e.POST("/tasks/:id/complete", h.MarkCompleted)

	e.POST("/tasks/:id/reviews", h.SubmitReview)
	e.GET("/tasks/:id/reviews", h.ListReviews)
}
