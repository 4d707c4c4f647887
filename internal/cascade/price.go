package cascade

import "app/internal/model"

// QuoteCurrency is the currency the engine quotes in. Level rows carry a
// USD base amount as well, but the dashboard charges in SYP.
const QuoteCurrency = "SYP"

// Resolve computes the price triple for a base price and an optional
// coupon. Percentage discounts are integer percent of the base; fixed
// discounts are an absolute amount in minor units. The final price never
// goes below zero.
func Resolve(basePrice int64, coupon *model.Coupon) model.PriceQuote {
	var discount int64
	if coupon != nil {
		if coupon.IsPercent {
			discount = basePrice * coupon.DiscountValue / 100
		} else {
			discount = coupon.DiscountValue
		}
	}
	final := basePrice - discount
	if final < 0 {
		final = 0
	}
	return model.PriceQuote{
		BasePrice:      basePrice,
		DiscountAmount: discount,
		FinalPrice:     final,
		Currency:       QuoteCurrency,
	}
}
