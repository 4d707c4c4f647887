package model

import "time"

// Coupon is a discount code valid for exactly one level. IsPercent selects
// between a percentage discount and a fixed amount in minor units.
type Coupon struct {
	CouponID      string     `db:"coupon_id" json:"coupon_id"`
	LevelID       string     `db:"level_id" json:"level_id"`
	Code          string     `db:"code" json:"code"`
	IsPercent     bool       `db:"is_percent" json:"is_percent"`
	DiscountValue int64      `db:"discount_value" json:"discount_value"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	ExpiresAt     *time.Time `db:"expires_at" json:"expires_at,omitempty"`
}

// PriceQuote is the derived price triple for a (level, coupon) pair. It is
// never stored; it is recomputed whenever the level or coupon selection
// changes. Overridden marks a manual operator correction of FinalPrice.
type PriceQuote struct {
	BasePrice      int64  `json:"base_price"`
	DiscountAmount int64  `json:"discount_amount"`
	FinalPrice     int64  `json:"final_price"`
	Currency       string `json:"currency"`
	Overridden     bool   `json:"overridden"`
}
