package idempotency

import "time"

// Status values for idempotency entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
)

// Record tracks one checkout attempt keyed by the client's Idempotency-Key
// header. Completed attempts keep the response so retries replay it instead
// of placing a second order.
type Record struct {
	IdempotencyKey string
	Status         string
	OrderID        int
	ResponseBody   []byte
	ResponseStatus int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ExpiresAt      time.Time
}
