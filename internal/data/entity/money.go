package entity

import "fmt"

// Money is an amount in the currency's minor units (cents).
type Money int64

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON renders the amount as a decimal number in major units. Money
// is output only; requests carry ids, never amounts.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// MinorUnits returns the raw amount for payment provider APIs.
func (m Money) MinorUnits() int64 {
	return int64(m)
}
