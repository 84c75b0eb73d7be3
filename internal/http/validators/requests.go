package validators

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	dto "github.com/delloop-lab/taskorilla-sub000/internal/data_models"
)

func ValidateCreateTaskRequest(r *dto.CreateTaskRequest) error {
	if r.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if r.Description == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "description is required")
	}
	return nil
}

// ParseBidAmount rejects malformed or non-positive amounts before the
// registry sees them.
func ParseBidAmount(r *dto.SubmitBidRequest) (decimal.Decimal, error) {
	if r.Amount == "" {
		return decimal.Zero, echo.NewHTTPError(http.StatusBadRequest, "amount is required")
	}

	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return decimal.Zero, echo.NewHTTPError(http.StatusBadRequest, "amount is not a valid number")
	}
	if !amount.IsPositive() {
		return decimal.Zero, echo.NewHTTPError(http.StatusBadRequest, "amount must be greater than zero")
	}

	return amount, nil
}

func ValidateReviewRequest(r *dto.SubmitReviewRequest) error {
	if r.Rating < 1 || r.Rating > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}
	return nil
}
