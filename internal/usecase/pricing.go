package usecase

import (
	"sort"

	"mentor-booking/internal/data/entity"
)

// Quote is one discount priced against a plan charge.
type Quote struct {
	Discount *entity.Discount
	Savings  entity.Money
}

// rankDiscounts prices every discount against charge and orders them by
// savings, highest first, ties broken by the lowest discount id.
func rankDiscounts(charge entity.Money, discounts []*entity.Discount) []Quote {
	quotes := make([]Quote, 0, len(discounts))
	for _, d := range discounts {
		quotes = append(quotes, Quote{Discount: d, Savings: d.Savings(charge)})
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		if quotes[i].Savings != quotes[j].Savings {
			return quotes[i].Savings > quotes[j].Savings
		}
		return quotes[i].Discount.ID < quotes[j].Discount.ID
	})
	return quotes
}

// bestQuote returns the top-ranked discount that still leaves something to
// charge. A discount that saves nothing, or that would make the session
// free, is never best; the next-ranked one wins instead.
func bestQuote(charge entity.Money, discounts []*entity.Discount) (Quote, bool) {
	for _, q := range rankDiscounts(charge, discounts) {
		if chargeable(charge, q) {
			return q, true
		}
	}
	return Quote{}, false
}

// chargeable reports whether q both saves something and leaves a positive
// total the provider can collect.
func chargeable(charge entity.Money, q Quote) bool {
	return q.Savings > 0 && q.Savings < charge
}

// Price is the breakdown charged at checkout.
type Price struct {
	Subtotal entity.Money
	Discount entity.Money
	Total    entity.Money
	Applied  entity.DiscountRef
}

func priceFor(charge entity.Money, d *entity.Discount) Price {
	p := Price{Subtotal: charge, Total: charge, Applied: entity.NoDiscount()}
	if d == nil {
		return p
	}

	p.Discount = d.Savings(charge)
	p.Total = charge - p.Discount
	if p.Total < 0 {
		p.Total = 0
	}
	p.Applied = entity.DiscountID(d.ID)
	return p
}
