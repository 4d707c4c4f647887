package dto

import "app/internal/cascade"

// SessionResponseDTO is the draft dialog state returned to the dashboard:
// the session id plus a snapshot of every stage's selection, options and
// loading/error flags, the coupon candidates and the current price quote.
type SessionResponseDTO struct {
	SessionID string `json:"session_id"`
	cascade.Snapshot
}

// SelectRequestDTO is an incoming stage selection. An empty ID clears the
// stage (and everything below it).
type SelectRequestDTO struct {
	Stage string `json:"stage" validate:"required,oneof=specialization course instructor level"`
	ID    string `json:"id"`
}

// CouponRequestDTO selects or clears the coupon for the chosen level.
type CouponRequestDTO struct {
	CouponID string `json:"coupon_id"`
}

// PriceOverrideRequestDTO is the operator correction of the final price.
type PriceOverrideRequestDTO struct {
	Amount *int64 `json:"amount" validate:"required,gte=0"`
}

// EditRequestDTO switches the session into edit mode for an existing
// access code; the engine replays the chain from the record.
type EditRequestDTO struct {
	AccessCodeID string `json:"access_code_id" validate:"required"`
}
