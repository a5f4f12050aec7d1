package adaptor

import (
	"encoding/json"
	"net/http"

	"mentor-booking/internal/dto/request"
	"mentor-booking/internal/usecase"
	"mentor-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MeetingHandler struct {
	service  usecase.MeetingService
	pageSize int
	log      *zap.Logger
}

func NewMeetingHandler(service usecase.MeetingService, pageSize int, log *zap.Logger) *MeetingHandler {
	return &MeetingHandler{
		service:  service,
		pageSize: pageSize,
		log:      log.With(zap.String("handler", "meeting")),
	}
}

// ListMeetings handles GET /meetings (protected)
func (h *MeetingHandler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	req := &request.ListMeetingsRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("limit"), h.pageSize),
		},
		Status: query.Get("status"),
	}

	meetings, err := h.service.ListMeetings(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, h.log, err, "list meetings")
		return
	}

	utils.ResponseSuccess(w, "success", meetings)
}

// GetMeeting handles GET /meetings/{id} (protected)
func (h *MeetingHandler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	meeting, err := h.service.GetMeeting(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, h.log, err, "get meeting")
		return
	}

	utils.ResponseSuccess(w, "success", meeting)
}

// SetLocation handles PUT /meetings/{id}/location (mentor)
func (h *MeetingHandler) SetLocation(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	var req request.SetMeetingLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	meeting, err := h.service.SetLocation(r.Context(), actor, id, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "set meeting location")
		return
	}

	utils.ResponseSuccess(w, "success", meeting)
}

// UpdateStatus handles PUT /meetings/{id}/status (mentor)
func (h *MeetingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	var req request.UpdateMeetingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	meeting, err := h.service.UpdateStatus(r.Context(), actor, id, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update meeting status")
		return
	}

	utils.ResponseSuccess(w, "success", meeting)
}

func (h *MeetingHandler) actorAndID(w http.ResponseWriter, r *http.Request) (usecase.Actor, uuid.UUID, bool) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return usecase.Actor{}, uuid.Nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid meeting ID", nil)
		return usecase.Actor{}, uuid.Nil, false
	}

	return actor, id, true
}
