package repository

import (
	"context"
	"database/sql"
	"fmt"

	"app/internal/model"
)

// AccessCodeRepository persists issued course access codes.
type AccessCodeRepository interface {
	Insert(ctx context.Context, rec *model.AccessCodeRecord) error
	Update(ctx context.Context, rec *model.AccessCodeRecord) error
	GetByID(ctx context.Context, id string) (*model.AccessCodeRecord, error)
	GetByCode(ctx context.Context, code string) (*model.AccessCodeRecord, error)
}

type accessCodeRepo struct {
	db *sql.DB
}

// NewAccessCodeRepo creates a new AccessCodeRepository
func NewAccessCodeRepo(db *sql.DB) AccessCodeRepository {
	return &accessCodeRepo{db: db}
}

// Insert stores a new record and fills the generated id and timestamps.
func (r *accessCodeRepo) Insert(ctx context.Context, rec *model.AccessCodeRecord) error {
	query := `
		INSERT INTO access_codes
			(code, specialization_id, course_id, instructor_id, level_id, coupon_id,
			 user_id, amount_paid, validity_months, notes, receipt_path, issued_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		rec.Code, rec.SpecializationID, rec.CourseID, rec.InstructorID, rec.LevelID, rec.CouponID,
		rec.UserID, rec.AmountPaid, rec.ValidityMonths, rec.Notes, rec.ReceiptPath, rec.IssuedBy,
	).Scan(&rec.AccessCodeID, &rec.CreatedAt, &rec.UpdatedAt)
}

// Update rewrites the mutable fields of an existing record.
func (r *accessCodeRepo) Update(ctx context.Context, rec *model.AccessCodeRecord) error {
	query := `
		UPDATE access_codes
		SET specialization_id = $2, course_id = $3, instructor_id = $4, level_id = $5,
		    coupon_id = $6, user_id = $7, amount_paid = $8, validity_months = $9,
		    notes = $10, receipt_path = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rec.AccessCodeID, rec.SpecializationID, rec.CourseID, rec.InstructorID, rec.LevelID,
		rec.CouponID, rec.UserID, rec.AmountPaid, rec.ValidityMonths, rec.Notes, rec.ReceiptPath,
	).Scan(&rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("access code %s not found", rec.AccessCodeID)
	}
	return err
}

func (r *accessCodeRepo) GetByID(ctx context.Context, id string) (*model.AccessCodeRecord, error) {
	return r.getBy(ctx, "id", id)
}

func (r *accessCodeRepo) GetByCode(ctx context.Context, code string) (*model.AccessCodeRecord, error) {
	return r.getBy(ctx, "code", code)
}

func (r *accessCodeRepo) getBy(ctx context.Context, column, value string) (*model.AccessCodeRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, code, specialization_id, course_id, instructor_id, level_id, coupon_id,
		       user_id, amount_paid, validity_months, notes, receipt_path, issued_by,
		       created_at, updated_at
		FROM access_codes
		WHERE %s = $1
	`, column)
	var rec model.AccessCodeRecord
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&rec.AccessCodeID, &rec.Code, &rec.SpecializationID, &rec.CourseID, &rec.InstructorID,
		&rec.LevelID, &rec.CouponID, &rec.UserID, &rec.AmountPaid, &rec.ValidityMonths,
		&rec.Notes, &rec.ReceiptPath, &rec.IssuedBy, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
