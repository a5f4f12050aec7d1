package adaptor

import (
	"context"
	"encoding/json"
	"net/http"

	"mentor-booking/internal/dto/request"
	"mentor-booking/internal/usecase"
	"mentor-booking/pkg/utils"

	"go.uber.org/zap"
)

type SlotHandler struct {
	service  usecase.SlotService
	pageSize int
	log      *zap.Logger
}

func NewSlotHandler(service usecase.SlotService, pageSize int, log *zap.Logger) *SlotHandler {
	return &SlotHandler{
		service:  service,
		pageSize: pageSize,
		log:      log.With(zap.String("handler", "slot")),
	}
}

// ListSlots handles GET /slots/plans/{planId} (public)
func (h *SlotHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	planID, err := pathID(r, "planId")
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid plan ID", nil)
		return
	}

	query := r.URL.Query()
	req := &request.ListSlotsRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("limit"), h.pageSize),
		},
		Status: query.Get("status"),
	}

	slots, err := h.service.ListSlots(r.Context(), planID, req)
	if err != nil {
		writeServiceError(w, h.log, err, "list slots")
		return
	}

	utils.ResponseSuccess(w, "success", slots)
}

// CreateSlot handles POST /slots/plans/{planId} (mentor)
func (h *SlotHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	planID, err := pathID(r, "planId")
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid plan ID", nil)
		return
	}

	var req request.CreateSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	slot, err := h.service.CreateSlot(r.Context(), actor, planID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create slot")
		return
	}

	utils.ResponseCreated(w, "Slot created", slot)
}

// CancelSlot handles PATCH /slots/plans/{planId}/cancel (mentor)
func (h *SlotHandler) CancelSlot(w http.ResponseWriter, r *http.Request) {
	h.changeSlot(w, r, "cancel slot", h.service.CancelSlot)
}

// ReleaseSlot handles PATCH /slots/plans/{planId}/release (mentor, admin)
func (h *SlotHandler) ReleaseSlot(w http.ResponseWriter, r *http.Request) {
	h.changeSlot(w, r, "release slot", h.service.ReleaseSlot)
}

func (h *SlotHandler) changeSlot(w http.ResponseWriter, r *http.Request, operation string,
	change func(ctx context.Context, actor usecase.Actor, planID int64, req *request.SlotWindowRequest) error) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	planID, err := pathID(r, "planId")
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid plan ID", nil)
		return
	}

	var req request.SlotWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := change(r.Context(), actor, planID, &req); err != nil {
		writeServiceError(w, h.log, err, operation)
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}
