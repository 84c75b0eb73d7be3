package constants

type (
	TaskStatus    string
	BidStatus     string
	PaymentStatus string
	PayoutStatus  string
	UpdateType    string
)

const (
	StatusOpen       TaskStatus = "open"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
)

const (
	PaymentNone    PaymentStatus = "none"
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

const (
	PayoutNone       PayoutStatus = "none"
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
	PayoutSimulated  PayoutStatus = "simulated"
)

const (
	UpdateGeneric           UpdateType = "generic"
	UpdateBidAccepted       UpdateType = "bid_accepted"
	UpdateWorkComplete      UpdateType = "work_complete"
	UpdateRevisionRequested UpdateType = "revision_requested"
	UpdateRevisionCompleted UpdateType = "revision_completed"
)

// Notification types delivered by the external notification service.
const (
	NotifyNewBid             = "new_bid"
	NotifyBidAccepted        = "bid_accepted"
	NotifyBidRejected        = "bid_rejected"
	NotifyTaskCancelled      = "task_cancelled"
	NotifyTaskCompleted      = "task_completed"
	NotifyTaskProgressUpdate = "task_progress_update"
	NotifyRevisionRequested  = "revision_requested"
	NotifyRevisionCompleted  = "revision_completed"
	NotifyHelperFinished     = "helper_finished"
	NotifyPayoutInitiated    = "payout_initiated"
)

// Platform settings keys.
const (
	SettingPlatformFeePercent = "platform_fee_percent"
)
