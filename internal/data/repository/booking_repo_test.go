package repository

import (
	"context"
	"testing"
	"time"

	"mentor-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBookingCreateNullableDiscount(t *testing.T) {
	now := time.Now()
	b := &entity.Booking{
		ID:        uuid.New(),
		MenteeID:  3,
		PlanID:    9,
		InvoiceID: uuid.New(),
		Discount:  entity.NoDiscount(),
		CreatedAt: now,
	}

	mock := newMock(t)
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(b.ID, int64(3), int64(9), b.InvoiceID, (*int64)(nil), "", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := NewBookingRepository(mock, zap.NewNop()).Create(context.Background(), b)
	assert.NoError(t, err)
}

func TestBookingUsedDiscountIDs(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("SELECT DISTINCT discount_id FROM bookings").
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"discount_id"}).AddRow(int64(1)).AddRow(int64(4)))

	used, err := NewBookingRepository(mock, zap.NewNop()).UsedDiscountIDs(context.Background(), 3)
	require.NoError(t, err)
	assert.Contains(t, used, int64(1))
	assert.Contains(t, used, int64(4))
	assert.NotContains(t, used, int64(2))
}
