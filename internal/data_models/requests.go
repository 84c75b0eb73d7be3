package dto

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type SubmitBidRequest struct {
	Amount  string `json:"amount"`
	Message string `json:"message"`
}

type ProgressUpdateRequest struct {
	Message  string `json:"message"`
	ImageURL string `json:"image_url"`
}

type CheckoutRequest struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

type ConfirmPaymentRequest struct {
	IntentID string `json:"intent_id"`
}

type SubmitReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}
