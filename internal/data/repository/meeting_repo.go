package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mentor-booking/internal/data/entity"
	"mentor-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

// MeetingFilter selects meetings where UserID is the mentor or the mentee.
type MeetingFilter struct {
	UserID int64
	Status *entity.MeetingStatus
}

type MeetingRepository interface {
	Create(ctx context.Context, meeting *entity.Meeting) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Meeting, error)
	FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*entity.Meeting, error)
	ListByParticipant(ctx context.Context, filter MeetingFilter, limit, offset int) ([]*entity.Meeting, error)
	CountByParticipant(ctx context.Context, filter MeetingFilter) (int64, error)

	// UpdateLocation and UpdateStatus only touch a meeting whose status is
	// in from; otherwise they return ErrStatusTransition.
	UpdateLocation(ctx context.Context, id uuid.UUID, location string, from []entity.MeetingStatus, to entity.MeetingStatus) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from []entity.MeetingStatus, to entity.MeetingStatus) error

	// HasActiveForSlot reports whether a non-cancelled meeting occupies key.
	HasActiveForSlot(ctx context.Context, key entity.SlotKey) (bool, error)
}

type meetingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewMeetingRepository(db database.Querier, log *zap.Logger) MeetingRepository {
	return &meetingRepository{
		db:  db,
		log: log.With(zap.String("repository", "meeting")),
	}
}

const meetingColumns = `meeting_id, invoice_id, mentee_id, mentor_id, plan_id, date, start_time, end_time, status, location, created_at, updated_at`

func scanMeeting(row pgx.Row) (*entity.Meeting, error) {
	var (
		m          entity.Meeting
		date       time.Time
		start, end pgtype.Time
	)
	err := row.Scan(
		&m.ID,
		&m.InvoiceID,
		&m.MenteeID,
		&m.Slot.MentorID,
		&m.Slot.PlanID,
		&date,
		&start,
		&end,
		&m.Status,
		&m.Location,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Slot.Date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	m.Slot.Start = fromPgTime(m.Slot.Date, start)
	m.Slot.End = fromPgTime(m.Slot.Date, end)
	return &m, nil
}

func (r *meetingRepository) Create(ctx context.Context, m *entity.Meeting) error {
	query := `
		INSERT INTO meetings (meeting_id, invoice_id, mentee_id, mentor_id, plan_id, date, start_time, end_time, status, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		m.ID,
		m.InvoiceID,
		m.MenteeID,
		m.Slot.MentorID,
		m.Slot.PlanID,
		toPgDate(m.Slot.Date),
		toPgTime(m.Slot.Start),
		toPgTime(m.Slot.End),
		m.Status,
		m.Location,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return fmt.Errorf("create meeting for invoice %s: %w", m.InvoiceID, ErrDuplicate)
		}
		r.log.Error("Failed to create meeting",
			zap.Error(err),
			zap.Stringer("invoice_id", m.InvoiceID),
			zap.Stringer("slot", m.Slot),
		)
		return fmt.Errorf("create meeting for invoice %s: %w", m.InvoiceID, err)
	}

	return nil
}

func (r *meetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE meeting_id = $1`

	m, err := scanMeeting(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find meeting by ID", zap.Error(err), zap.Stringer("meeting_id", id))
		return nil, fmt.Errorf("find meeting by ID %s: %w", id, err)
	}

	return m, nil
}

func (r *meetingRepository) FindByInvoiceID(ctx context.Context, invoiceID uuid.UUID) (*entity.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE invoice_id = $1`

	m, err := scanMeeting(r.db.QueryRow(ctx, query, invoiceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find meeting by invoice", zap.Error(err), zap.Stringer("invoice_id", invoiceID))
		return nil, fmt.Errorf("find meeting by invoice %s: %w", invoiceID, err)
	}

	return m, nil
}

func (r *meetingRepository) ListByParticipant(ctx context.Context, filter MeetingFilter, limit, offset int) ([]*entity.Meeting, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meetings
		WHERE (mentor_id = $1 OR mentee_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY date DESC, start_time DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, filter.UserID, meetingStatusArg(filter.Status), limit, offset)
	if err != nil {
		r.log.Error("Failed to list meetings", zap.Error(err), zap.Int64("user_id", filter.UserID))
		return nil, fmt.Errorf("list meetings for user %d: %w", filter.UserID, err)
	}
	defer rows.Close()

	var meetings []*entity.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			r.log.Error("Failed to scan meeting row", zap.Error(err))
			return nil, fmt.Errorf("scan meeting row: %w", err)
		}
		meetings = append(meetings, m)
	}

	return meetings, rows.Err()
}

func (r *meetingRepository) CountByParticipant(ctx context.Context, filter MeetingFilter) (int64, error) {
	query := `
		SELECT COUNT(*) FROM meetings
		WHERE (mentor_id = $1 OR mentee_id = $1)
		  AND ($2::text IS NULL OR status = $2)
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, filter.UserID, meetingStatusArg(filter.Status)).Scan(&count); err != nil {
		r.log.Error("Failed to count meetings", zap.Error(err), zap.Int64("user_id", filter.UserID))
		return 0, fmt.Errorf("count meetings for user %d: %w", filter.UserID, err)
	}

	return count, nil
}

func (r *meetingRepository) UpdateLocation(ctx context.Context, id uuid.UUID, location string, from []entity.MeetingStatus, to entity.MeetingStatus) error {
	query := `
		UPDATE meetings
		SET location = $2, status = $3, updated_at = NOW()
		WHERE meeting_id = $1 AND status = ANY($4)
	`

	result, err := r.db.Exec(ctx, query, id, location, string(to), meetingStatuses(from))
	if err != nil {
		r.log.Error("Failed to update meeting location", zap.Error(err), zap.Stringer("meeting_id", id))
		return fmt.Errorf("update meeting %s location: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update meeting %s location: %w", id, ErrStatusTransition)
	}

	return nil
}

func (r *meetingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []entity.MeetingStatus, to entity.MeetingStatus) error {
	query := `
		UPDATE meetings
		SET status = $2, updated_at = NOW()
		WHERE meeting_id = $1 AND status = ANY($3)
	`

	result, err := r.db.Exec(ctx, query, id, string(to), meetingStatuses(from))
	if err != nil {
		r.log.Error("Failed to update meeting status",
			zap.Error(err),
			zap.Stringer("meeting_id", id),
			zap.String("to", string(to)),
		)
		return fmt.Errorf("update meeting %s status to %s: %w", id, to, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update meeting %s status to %s: %w", id, to, ErrStatusTransition)
	}

	return nil
}

func (r *meetingRepository) HasActiveForSlot(ctx context.Context, key entity.SlotKey) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM meetings
			WHERE mentor_id = $1 AND plan_id = $2 AND date = $3 AND start_time = $4 AND end_time = $5
			  AND status <> 'cancelled'
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, keyArgs(key)...).Scan(&exists); err != nil {
		r.log.Error("Failed to check meetings for slot", zap.Error(err), zap.Stringer("slot", key))
		return false, fmt.Errorf("check meetings for slot %s: %w", key, err)
	}

	return exists, nil
}

func meetingStatusArg(status *entity.MeetingStatus) *string {
	if status == nil {
		return nil
	}
	s := string(*status)
	return &s
}

func meetingStatuses(from []entity.MeetingStatus) []string {
	out := make([]string, len(from))
	for i, s := range from {
		out[i] = string(s)
	}
	return out
}
