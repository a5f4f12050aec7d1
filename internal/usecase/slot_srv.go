package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mentor-booking/internal/data/entity"
	"mentor-booking/internal/data/repository"
	"mentor-booking/internal/dto/request"
	"mentor-booking/internal/dto/response"

	"go.uber.org/zap"
)

type SlotService interface {
	ListSlots(ctx context.Context, planID int64, req *request.ListSlotsRequest) (*response.PaginatedResponse[response.SlotResponse], error)
	CreateSlot(ctx context.Context, actor Actor, planID int64, req *request.CreateSlotRequest) (*response.SlotResponse, error)
	CancelSlot(ctx context.Context, actor Actor, planID int64, req *request.SlotWindowRequest) error
	ReleaseSlot(ctx context.Context, actor Actor, planID int64, req *request.SlotWindowRequest) error
}

type slotService struct {
	repo  *repository.Repository
	txr   repository.Transactor
	clock func() time.Time
	log   *zap.Logger
}

func NewSlotService(repo *repository.Repository, txr repository.Transactor, log *zap.Logger) SlotService {
	return &slotService{
		repo:  repo,
		txr:   txr,
		clock: time.Now,
		log:   log.With(zap.String("service", "slot")),
	}
}

func (s *slotService) ListSlots(ctx context.Context, planID int64, req *request.ListSlotsRequest) (*response.PaginatedResponse[response.SlotResponse], error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	if _, err := findPlan(ctx, s.repo, planID); err != nil {
		return nil, err
	}

	var status *entity.SlotStatus
	if req.Status != "" {
		st := entity.SlotStatus(req.Status)
		status = &st
	}

	slots, err := s.repo.Slot.ListByPlan(ctx, planID, status, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	total, err := s.repo.Slot.CountByPlan(ctx, planID, status)
	if err != nil {
		return nil, fmt.Errorf("count slots: %w", err)
	}

	data := make([]response.SlotResponse, 0, len(slots))
	for _, slot := range slots {
		data = append(data, response.SlotToResponse(slot))
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *slotService) CreateSlot(ctx context.Context, actor Actor, planID int64, req *request.CreateSlotRequest) (*response.SlotResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	plan, err := findPlan(ctx, s.repo, planID)
	if err != nil {
		return nil, err
	}
	if !actor.owns(plan.MentorID) {
		return nil, fmt.Errorf("plan %d belongs to another mentor: %w", planID, ErrForbidden)
	}

	key, err := s.resolveKey(plan, &req.SlotWindowRequest)
	if err != nil {
		return nil, err
	}

	if key.Duration() != plan.Duration() {
		s.log.Warn("Slot duration mismatch",
			zap.Stringer("slot", key),
			zap.Duration("slot_duration", key.Duration()),
			zap.Duration("plan_duration", plan.Duration()),
		)
		return nil, fmt.Errorf("slot is %s, plan %d runs %s: %w", key.Duration(), planID, plan.Duration(), ErrInvalidDuration)
	}

	status := entity.SlotStatusAvailable
	if req.Status != "" {
		status = entity.SlotStatus(req.Status)
	}

	now := s.clock().UTC()
	slot := &entity.Slot{
		SlotKey:   key,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Slot.Create(ctx, slot); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("slot %s already exists: %w", key, ErrConflict)
		}
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.log.Info("Slot created", zap.Stringer("slot", key), zap.String("status", string(status)))

	resp := response.SlotToResponse(slot)
	return &resp, nil
}

func (s *slotService) CancelSlot(ctx context.Context, actor Actor, planID int64, req *request.SlotWindowRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	plan, err := findPlan(ctx, s.repo, planID)
	if err != nil {
		return err
	}
	if !actor.owns(plan.MentorID) {
		return fmt.Errorf("plan %d belongs to another mentor: %w", planID, ErrForbidden)
	}

	key, err := s.resolveKey(plan, req)
	if err != nil {
		return err
	}

	err = s.repo.Slot.Transition(ctx, key,
		[]entity.SlotStatus{entity.SlotStatusAvailable}, entity.SlotStatusCancelled)
	if err != nil {
		return s.transitionError(ctx, s.repo, key, err)
	}

	s.log.Info("Slot cancelled", zap.Stringer("slot", key), zap.Int64("by", actor.UserID))
	return nil
}

// ReleaseSlot returns a booked or cancelled slot to the calendar. A slot
// still held by a live meeting stays put.
func (s *slotService) ReleaseSlot(ctx context.Context, actor Actor, planID int64, req *request.SlotWindowRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	plan, err := findPlan(ctx, s.repo, planID)
	if err != nil {
		return err
	}
	if !actor.owns(plan.MentorID) {
		return fmt.Errorf("plan %d belongs to another mentor: %w", planID, ErrForbidden)
	}

	key, err := s.resolveKey(plan, req)
	if err != nil {
		return err
	}

	err = s.txr.WithinTx(ctx, func(repo *repository.Repository) error {
		active, err := repo.Meeting.HasActiveForSlot(ctx, key)
		if err != nil {
			return err
		}
		if active {
			return fmt.Errorf("slot %s has an active meeting: %w", key, ErrConflict)
		}

		err = repo.Slot.Transition(ctx, key,
			[]entity.SlotStatus{entity.SlotStatusBooked, entity.SlotStatusCancelled}, entity.SlotStatusAvailable)
		if err != nil {
			return s.transitionError(ctx, repo, key, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("Slot released", zap.Stringer("slot", key), zap.Int64("by", actor.UserID))
	return nil
}

func (s *slotService) resolveKey(plan *entity.Plan, req *request.SlotWindowRequest) (entity.SlotKey, error) {
	start, end, err := req.Window()
	if err != nil {
		return entity.SlotKey{}, newValidationError(map[string]string{"SlotWindow": err.Error()})
	}
	key, err := entity.NewSlotKey(plan.MentorID, plan.ID, start, end)
	if err != nil {
		return entity.SlotKey{}, newValidationError(map[string]string{"EndTime": err.Error()})
	}
	return key, nil
}

// transitionError tells a missing slot from one in the wrong status.
func (s *slotService) transitionError(ctx context.Context, repo *repository.Repository, key entity.SlotKey, err error) error {
	if !errors.Is(err, repository.ErrSlotNotAvailable) {
		return fmt.Errorf("update slot: %w", err)
	}

	slot, findErr := repo.Slot.FindByKey(ctx, key)
	if findErr != nil {
		return fmt.Errorf("find slot: %w", findErr)
	}
	if slot == nil {
		return fmt.Errorf("slot %s: %w", key, ErrNotFound)
	}
	return fmt.Errorf("slot %s is %s: %w", key, slot.Status, ErrConflict)
}
