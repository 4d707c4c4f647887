package model

import "time"

// AccessCodeDraft is the aggregate an operator builds through the selection
// chain before issuing or updating a course access code.
type AccessCodeDraft struct {
	SpecializationID string `json:"specialization_id"`
	CourseID         string `json:"course_id"`
	InstructorID     string `json:"instructor_id"`
	LevelID          string `json:"level_id"`
	CouponID         string `json:"coupon_id,omitempty"`
	UserID           string `json:"user_id"`
	AmountPaid       int64  `json:"amount_paid"`
	ValidityMonths   int    `json:"validity_months"`
	Notes            string `json:"notes,omitempty"`
}

// AccessCodeRecord is a persisted access code.
type AccessCodeRecord struct {
	AccessCodeID     string    `db:"access_code_id" json:"access_code_id"`
	Code             string    `db:"code" json:"code"`
	SpecializationID string    `db:"specialization_id" json:"specialization_id"`
	CourseID         string    `db:"course_id" json:"course_id"`
	InstructorID     string    `db:"instructor_id" json:"instructor_id"`
	LevelID          string    `db:"level_id" json:"level_id"`
	CouponID         *string   `db:"coupon_id" json:"coupon_id,omitempty"`
	UserID           string    `db:"user_id" json:"user_id"`
	AmountPaid       int64     `db:"amount_paid" json:"amount_paid"`
	ValidityMonths   int       `db:"validity_months" json:"validity_months"`
	Notes            string    `db:"notes" json:"notes"`
	ReceiptPath      string    `db:"receipt_path" json:"receipt_path"`
	IssuedBy         string    `db:"issued_by" json:"issued_by"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
