package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	dto "github.com/delloop-lab/taskorilla-sub000/internal/data_models"
	apperrors "github.com/delloop-lab/taskorilla-sub000/internal/errors"
	"github.com/delloop-lab/taskorilla-sub000/internal/http/validators"
	"github.com/delloop-lab/taskorilla-sub000/internal/services"
)

// Handler exposes the lifecycle operations over HTTP. The acting user
// comes from the X-User-ID header; authentication itself lives in front
// of this service.
type Handler struct {
	lifecycle   *services.TaskLifecycleController
	registry    *services.BidRegistry
	fulfillment *services.FulfillmentTracker
	payments    *services.PaymentOrchestrator
	reviews     *services.ReviewGate
}

func NewHandler(
	lifecycle *services.TaskLifecycleController,
	registry *services.BidRegistry,
	fulfillment *services.FulfillmentTracker,
	payments *services.PaymentOrchestrator,
	reviews *services.ReviewGate,
) *Handler {
	return &Handler{
		lifecycle:   lifecycle,
		registry:    registry,
		fulfillment: fulfillment,
		payments:    payments,
		reviews:     reviews,
	}
}

func actingUser(c echo.Context) (string, error) {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "X-User-ID header is required")
	}
	return userID, nil
}

func httpError(err error) error {
	return echo.NewHTTPError(apperrors.StatusCode(err), err.Error())
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (h *Handler) CreateTask(c echo.Context) error {
	userID, err := actingUser(c)
	if err != nil {
		return err
	}

	var req dto.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateCreateTaskRequest(&req); err != nil {
		return err
	}

	task, err := h.lifecycle.CreateTask(c.Request().Context(), req.Title, req.Description, userID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

func (h *Handler) GetTask(c echo.Context) error {
	task, err := h.lifecycle.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) ListTasks(c echo.Context) error {
	tasks, err := h.lifecycle.ListTasks(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list tasks")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count": len(tasks),
		"tasks": tasks,
	})
}

func (h *Handler) DeleteTask(c echo.Context) error {
	userID, err := actingUser(c)
	if err != nil {
		return err
	}

	if err := h.lifecycle.DeleteTask(c.Request().Context(), c.Param("id"), userID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ArchiveTask(c echo.Context) error {
	userID, err := actingUser(c)
	if err != nil {
		return err
	}

	if err := h.lifecycle.Archive(c.Request().Context(), c.Param("id"), userID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SubmitBid(c echo.Context) error {
	userID, err := actingUser(c)
	if err != nil {
		return err
	}

	var req dto.SubmitBidRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	amount, err := validators.ParseBidAmount(&req)
	if err != nil {
		return err
	}

	bid, err := h.registry.SubmitBid(c.Request().Context(), c.Param("id"), userID, amount, req.Message)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, bid)
}

func (h *Handler) ListBids(c echo.Context) error {
	bids, err := h.registry.ListBids(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count": len(bids),
		"bids":  bids,
	})
}

func (h *Handler) AcceptBid(c echo.Context) error {
	userID, err := actingUser(c)
	if err != nil {
		return err
	}

	result, err := h.lifecycle.AcceptBid(
		c.Request().Context(),
		c.Param("id"),
		c.Param("bidID"),
		userID,
		c.QueryParam("return_url"),
		c.QueryParam("cancel_url"),
	)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *Handler) CancelAssignment(c echo.Context) error {
	userID, err := actingUser(c)
	if err != nil {
		return err
	}

	task, err := h.lifecycle.CancelAssignment(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) PostUpdate(c echo.Context) error {
	userID, err := actingUser(c)
	if err != nil {
		return err
	}

	var req dto.ProgressUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	update, err := h.fulfillment.PostUpdate(c.Request().Context(), c.Param("id"), userID, optional(req.Message), optional(req.ImageURL))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, update)
}

func (h *Handler) Timeline(c echo.Context) error {
	updates, err := h.fulfillment.Timeline(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	outstanding, err := h.fulfillment.HasOutstandingRevision(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"updates":                  updates,
		"has_outstanding_revision": outstanding,
	})
}

func (h *Handler) RequestRevision(c echo.Context) error {
	userID, err := actingUser(c)
	if err != nil {
		return err
	}

	var req dto.ProgressUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	update, err := h.fulfillment.RequestRevision(c.Request().Context(), c.Param("id"), userID, optional(req.Message), optional(req.ImageURL))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, update)
}

func (h *Handler) CompleteRevision(c echo.Context) error {
	userID, err := actingUser(c)
	if err != nil {
		return err
	}

	var req dto.ProgressUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	update, err := h.fulfillment.MarkRevisionComplete(c.Request().Context(), c.Param("id"), userID, optional(req.Message), optional(req.ImageURL))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, update)
}

func (h *Handler) MarkWorkComplete(c echo.Context) error {
	userID, err := actingUser(c)
	if err != nil {
		return err
	}

	already, err := h.fulfillment.MarkWorkComplete(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"already_signalled": already})
}

func (h *Handler) InitiateCheckout(c echo.Context) error {
	userID, err := actingUser(c)
	if err != nil {
		return err
	}

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	session, err := h.payments.InitiateCheckout(c.Request().Context(), c.Param("id"), userID, req.ReturnURL, req.CancelURL)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"redirect_url": session.RedirectURL,
		"intent_id":    session.IntentID,
	})
}

// Reconcile serves the poster's return navigation: it blocks until the
// payment confirms or the bounded poll gives up with "processing".
func (h *Handler) Reconcile(c echo.Context) error {
	outcome, err := h.payments.Reconcile(c.Request().Context(), c.Param("id"))
	if err != nil && apperrors.KindOf(err) == apperrors.KindNotFound {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"outcome": outcome})
}

// ConfirmPayment is the webhook-shaped entry for out-of-band gateway
// confirmation.
func (h *Handler) ConfirmPayment(c echo.Context) error {
	var req dto.ConfirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if req.IntentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "intent_id is required")
	}

	if err := h.payments.ConfirmPayment(c.Request().Context(), req.IntentID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) MarkCompleted(c echo.Context) error {
	userID, err := actingUser(c)
	if err != nil {
		return err
	}

	task, err := h.lifecycle.MarkCompleted(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) SubmitReview(c echo.Context) error {
	userID, err := actingUser(c)
	if err != nil {
		return err
	}

	var req dto.SubmitReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateReviewRequest(&req); err != nil {
		return err
	}

	review, err := h.reviews.SubmitReview(c.Request().Context(), c.Param("id"), userID, req.Rating, optional(req.Comment))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, review)
}

func (h *Handler) ListReviews(c echo.Context) error {
	reviews, err := h.reviews.ListReviews(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":   len(reviews),
		"reviews": reviews,
	})
}
