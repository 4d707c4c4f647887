package dto

import "time"

// SubmitFormDTO carries the operator-entered fields of the multipart
// submission. The chain selections come from the session, not the form.
type SubmitFormDTO struct {
	UserID         string `validate:"required"`
	AmountPaid     *int64 `validate:"omitempty,gt=0"`
	ValidityMonths int    `validate:"gte=0,lte=60"`
	Notes          string `validate:"max=2000"`
	// AccessCodeID switches the submission to the update path.
	AccessCodeID string
}

// AccessCodeResponseDTO is returned in API responses for access codes
type AccessCodeResponseDTO struct {
	AccessCodeID     string    `json:"access_code_id"`
	Code             string    `json:"code"`
	SpecializationID string    `json:"specialization_id"`
	CourseID         string    `json:"course_id"`
	InstructorID     string    `json:"instructor_id"`
	LevelID          string    `json:"level_id"`
	CouponID         string    `json:"coupon_id,omitempty"`
	UserID           string    `json:"user_id"`
	AmountPaid       int64     `json:"amount_paid"`
	ValidityMonths   int       `json:"validity_months"`
	Notes            string    `json:"notes,omitempty"`
	ReceiptURL       string    `json:"receipt_url,omitempty"`
	IssuedBy         string    `json:"issued_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
