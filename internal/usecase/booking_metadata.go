package usecase

import (
	"fmt"
	"strconv"
	"time"

	"mentor-booking/internal/data/entity"
)

const metadataTimeLayout = "2006-01-02T15:04:05"

const (
	metaMenteeID       = "menteeId"
	metaMentorID       = "mentorId"
	metaPlanID         = "planId"
	metaSlotStart      = "slotStartTime"
	metaSlotEnd        = "slotEndTime"
	metaMessage        = "message"
	metaDiscountID     = "discountId"
	metaPlanCharge     = "planCharge"
	metaDiscountAmount = "discountAmount"
)

// BookingMetadata is the booking context carried through the payment
// provider between checkout and webhook. The provider stores it as a flat
// string map.
type BookingMetadata struct {
	MenteeID       int64
	MentorID       int64
	PlanID         int64
	SlotStart      time.Time
	SlotEnd        time.Time
	Message        string
	Discount       entity.DiscountRef
	PlanCharge     entity.Money
	DiscountAmount entity.Money
}

func (m BookingMetadata) Encode() map[string]string {
	out := map[string]string{
		metaMenteeID:       strconv.FormatInt(m.MenteeID, 10),
		metaMentorID:       strconv.FormatInt(m.MentorID, 10),
		metaPlanID:         strconv.FormatInt(m.PlanID, 10),
		metaSlotStart:      m.SlotStart.UTC().Format(metadataTimeLayout),
		metaSlotEnd:        m.SlotEnd.UTC().Format(metadataTimeLayout),
		metaMessage:        m.Message,
		metaPlanCharge:     strconv.FormatInt(m.PlanCharge.MinorUnits(), 10),
		metaDiscountAmount: strconv.FormatInt(m.DiscountAmount.MinorUnits(), 10),
	}
	if id, ok := m.Discount.Get(); ok {
		out[metaDiscountID] = strconv.FormatInt(id, 10)
	}
	return out
}

// DecodeBookingMetadata is the strict inverse of Encode. Any missing or
// malformed field is an ErrIntegrity.
func DecodeBookingMetadata(md map[string]string) (BookingMetadata, error) {
	var (
		m   BookingMetadata
		err error
	)

	if m.MenteeID, err = positiveID(md, metaMenteeID); err != nil {
		return m, err
	}
	if m.MentorID, err = positiveID(md, metaMentorID); err != nil {
		return m, err
	}
	if m.PlanID, err = positiveID(md, metaPlanID); err != nil {
		return m, err
	}
	if m.SlotStart, err = metaTime(md, metaSlotStart); err != nil {
		return m, err
	}
	if m.SlotEnd, err = metaTime(md, metaSlotEnd); err != nil {
		return m, err
	}

	charge, err := amount(md, metaPlanCharge)
	if err != nil {
		return m, err
	}
	discount, err := amount(md, metaDiscountAmount)
	if err != nil {
		return m, err
	}
	if charge <= 0 || discount > charge {
		return m, fmt.Errorf("%w: metadata amounts out of range (charge %d, discount %d)", ErrIntegrity, charge, discount)
	}
	m.PlanCharge = entity.Money(charge)
	m.DiscountAmount = entity.Money(discount)

	m.Discount = entity.NoDiscount()
	if raw, ok := md[metaDiscountID]; ok && raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			return m, fmt.Errorf("%w: metadata %s=%q", ErrIntegrity, metaDiscountID, raw)
		}
		m.Discount = entity.DiscountID(id)
	}
	if !m.Discount.IsSet() && m.DiscountAmount != 0 {
		return m, fmt.Errorf("%w: discount amount without discount id", ErrIntegrity)
	}

	msg, ok := md[metaMessage]
	if !ok {
		return m, fmt.Errorf("%w: metadata %s missing", ErrIntegrity, metaMessage)
	}
	m.Message = msg

	return m, nil
}

// SlotKey rebuilds the claimed slot identity.
func (m BookingMetadata) SlotKey() (entity.SlotKey, error) {
	key, err := entity.NewSlotKey(m.MentorID, m.PlanID, m.SlotStart, m.SlotEnd)
	if err != nil {
		return entity.SlotKey{}, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	return key, nil
}

func (m BookingMetadata) Total() entity.Money {
	return m.PlanCharge - m.DiscountAmount
}

func positiveID(md map[string]string, key string) (int64, error) {
	raw, ok := md[key]
	if !ok {
		return 0, fmt.Errorf("%w: metadata %s missing", ErrIntegrity, key)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: metadata %s=%q", ErrIntegrity, key, raw)
	}
	return id, nil
}

func metaTime(md map[string]string, key string) (time.Time, error) {
	raw, ok := md[key]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: metadata %s missing", ErrIntegrity, key)
	}
	t, err := time.ParseInLocation(metadataTimeLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: metadata %s=%q", ErrIntegrity, key, raw)
	}
	return t, nil
}

func amount(md map[string]string, key string) (int64, error) {
	raw, ok := md[key]
	if !ok {
		return 0, fmt.Errorf("%w: metadata %s missing", ErrIntegrity, key)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: metadata %s=%q", ErrIntegrity, key, raw)
	}
	return v, nil
}
