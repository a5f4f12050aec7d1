package entity

import (
	"time"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

type DiscountStatus string

const (
	DiscountStatusActive   DiscountStatus = "active"
	DiscountStatusInactive DiscountStatus = "inactive"
)

// Discount is a promotion rule. Value is whole percent for percentage
// discounts and minor units for fixed ones.
type Discount struct {
	ID         int64          `db:"discount_id"`
	Name       string         `db:"discount_name"`
	Type       DiscountType   `db:"discount_type"`
	Value      int64          `db:"discount_value"`
	StartDate  time.Time      `db:"start_date"`
	EndDate    time.Time      `db:"end_date"`
	Status     DiscountStatus `db:"status"`
	UsageLimit int            `db:"usage_limit"`
	UsedCount  int            `db:"used_count"`
}

// IsUsable reports whether the discount is active, inside its window
// (inclusive on both ends) and not exhausted at now.
func (d *Discount) IsUsable(now time.Time) bool {
	return d.Status == DiscountStatusActive &&
		!now.Before(d.StartDate) &&
		!now.After(d.EndDate) &&
		d.UsedCount < d.UsageLimit
}

// Savings is what the discount takes off charge. Percentages round down to
// the minor unit; fixed amounts are clamped to the charge.
func (d *Discount) Savings(charge Money) Money {
	if charge <= 0 || d.Value <= 0 {
		return 0
	}

	var savings Money
	switch d.Type {
	case DiscountTypePercentage:
		pct := d.Value
		if pct > 100 {
			pct = 100
		}
		savings = Money(int64(charge) * pct / 100)
	case DiscountTypeFixed:
		savings = Money(d.Value)
	}

	if savings > charge {
		return charge
	}
	return savings
}

// DiscountRef is an optional reference to a discount.
type DiscountRef struct {
	id  int64
	set bool
}

func NoDiscount() DiscountRef {
	return DiscountRef{}
}

func DiscountID(id int64) DiscountRef {
	return DiscountRef{id: id, set: true}
}

func (r DiscountRef) Get() (int64, bool) {
	return r.id, r.set
}

func (r DiscountRef) IsSet() bool {
	return r.set
}

// Nullable returns a value suitable for a nullable BIGINT column.
func (r DiscountRef) Nullable() *int64 {
	if !r.set {
		return nil
	}
	id := r.id
	return &id
}

// DiscountRefFromNullable is the inverse of Nullable.
func DiscountRefFromNullable(id *int64) DiscountRef {
	if id == nil {
		return NoDiscount()
	}
	return DiscountID(*id)
}
