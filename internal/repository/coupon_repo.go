package repository

import (
	"context"
	"database/sql"
	"fmt"

	"app/internal/model"
)

// CouponRepository reads discount coupons. Candidates are always keyed by
// level; there is no global coupon listing in the issue flow.
type CouponRepository interface {
	ListActiveByLevel(ctx context.Context, levelID string) ([]model.Coupon, error)
	GetByID(ctx context.Context, couponID string) (*model.Coupon, error)
}

type couponRepo struct {
	db *sql.DB
}

// NewCouponRepo creates a new CouponRepository
func NewCouponRepo(db *sql.DB) CouponRepository {
	return &couponRepo{db: db}
}

func (r *couponRepo) ListActiveByLevel(ctx context.Context, levelID string) ([]model.Coupon, error) {
	query := `
		SELECT id, level_id, code, is_percent, discount_value, is_active, expires_at
		FROM coupons
		WHERE level_id = $1
		  AND is_active = TRUE
		  AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY code ASC
	`
	rows, err := r.db.QueryContext(ctx, query, levelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		var c model.Coupon
		if err := rows.Scan(&c.CouponID, &c.LevelID, &c.Code, &c.IsPercent, &c.DiscountValue, &c.IsActive, &c.ExpiresAt); err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func (r *couponRepo) GetByID(ctx context.Context, couponID string) (*model.Coupon, error) {
	query := `
		SELECT id, level_id, code, is_percent, discount_value, is_active, expires_at
		FROM coupons
		WHERE id = $1
	`
	var c model.Coupon
	err := r.db.QueryRowContext(ctx, query, couponID).
		Scan(&c.CouponID, &c.LevelID, &c.Code, &c.IsPercent, &c.DiscountValue, &c.IsActive, &c.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get coupon %s: %w", couponID, err)
	}
	return &c, nil
}
