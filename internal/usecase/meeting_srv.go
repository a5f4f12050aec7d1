package usecase

import (
	"context"
	"errors"
	"fmt"

	"mentor-booking/internal/data/entity"
	"mentor-booking/internal/data/repository"
	"mentor-booking/internal/dto/request"
	"mentor-booking/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MeetingService interface {
	GetMeeting(ctx context.Context, actor Actor, id uuid.UUID) (*response.MeetingResponse, error)
	ListMeetings(ctx context.Context, actor Actor, req *request.ListMeetingsRequest) (*response.PaginatedResponse[response.MeetingResponse], error)
	SetLocation(ctx context.Context, actor Actor, id uuid.UUID, req *request.SetMeetingLocationRequest) (*response.MeetingResponse, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, req *request.UpdateMeetingStatusRequest) (*response.MeetingResponse, error)
}

type meetingService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewMeetingService(repo *repository.Repository, log *zap.Logger) MeetingService {
	return &meetingService{
		repo: repo,
		log:  log.With(zap.String("service", "meeting")),
	}
}

var openMeetingStatuses = []entity.MeetingStatus{entity.MeetingStatusPending, entity.MeetingStatusScheduled}

func (s *meetingService) GetMeeting(ctx context.Context, actor Actor, id uuid.UUID) (*response.MeetingResponse, error) {
	meeting, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && actor.UserID != meeting.MenteeID && actor.UserID != meeting.Slot.MentorID {
		return nil, fmt.Errorf("meeting %s: %w", id, ErrForbidden)
	}

	resp := response.MeetingToResponse(meeting)
	return &resp, nil
}

func (s *meetingService) ListMeetings(ctx context.Context, actor Actor, req *request.ListMeetingsRequest) (*response.PaginatedResponse[response.MeetingResponse], error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	filter := repository.MeetingFilter{UserID: actor.UserID}
	if req.Status != "" {
		st := entity.MeetingStatus(req.Status)
		filter.Status = &st
	}

	meetings, err := s.repo.Meeting.ListByParticipant(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}

	total, err := s.repo.Meeting.CountByParticipant(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count meetings: %w", err)
	}

	data := make([]response.MeetingResponse, 0, len(meetings))
	for _, m := range meetings {
		data = append(data, response.MeetingToResponse(m))
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

// SetLocation records the join link and moves the meeting to scheduled.
func (s *meetingService) SetLocation(ctx context.Context, actor Actor, id uuid.UUID, req *request.SetMeetingLocationRequest) (*response.MeetingResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	meeting, err := s.findForMentor(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	err = s.repo.Meeting.UpdateLocation(ctx, id, req.Location, openMeetingStatuses, entity.MeetingStatusScheduled)
	if err != nil {
		return nil, transitionErr(id, meeting.Status, err)
	}

	s.log.Info("Meeting scheduled", zap.Stringer("meeting_id", id), zap.Int64("by", actor.UserID))
	return s.reload(ctx, id)
}

func (s *meetingService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, req *request.UpdateMeetingStatusRequest) (*response.MeetingResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	meeting, err := s.findForMentor(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	to := entity.MeetingStatus(req.Status)
	if err := s.repo.Meeting.UpdateStatus(ctx, id, openMeetingStatuses, to); err != nil {
		return nil, transitionErr(id, meeting.Status, err)
	}

	s.log.Info("Meeting status updated",
		zap.Stringer("meeting_id", id),
		zap.String("from", string(meeting.Status)),
		zap.String("to", string(to)),
		zap.Int64("by", actor.UserID),
	)
	return s.reload(ctx, id)
}

func (s *meetingService) find(ctx context.Context, id uuid.UUID) (*entity.Meeting, error) {
	meeting, err := s.repo.Meeting.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find meeting: %w", err)
	}
	if meeting == nil {
		return nil, fmt.Errorf("meeting %s: %w", id, ErrNotFound)
	}
	return meeting, nil
}

func (s *meetingService) findForMentor(ctx context.Context, actor Actor, id uuid.UUID) (*entity.Meeting, error) {
	meeting, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != meeting.Slot.MentorID {
		return nil, fmt.Errorf("meeting %s belongs to another mentor: %w", id, ErrForbidden)
	}
	return meeting, nil
}

func (s *meetingService) reload(ctx context.Context, id uuid.UUID) (*response.MeetingResponse, error) {
	meeting, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := response.MeetingToResponse(meeting)
	return &resp, nil
}

func transitionErr(id uuid.UUID, current entity.MeetingStatus, err error) error {
	if errors.Is(err, repository.ErrStatusTransition) {
		return fmt.Errorf("meeting %s is %s: %w", id, current, ErrInvalidTransition)
	}
	return fmt.Errorf("update meeting: %w", err)
}
