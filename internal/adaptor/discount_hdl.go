package adaptor

import (
	"net/http"

	"mentor-booking/internal/dto/request"
	"mentor-booking/internal/usecase"
	"mentor-booking/pkg/utils"

	"go.uber.org/zap"
)

type DiscountHandler struct {
	service usecase.DiscountService
	log     *zap.Logger
}

func NewDiscountHandler(service usecase.DiscountService, log *zap.Logger) *DiscountHandler {
	return &DiscountHandler{
		service: service,
		log:     log.With(zap.String("handler", "discount")),
	}
}

// FindBest handles GET /discounts/best?mentee_id=&plan_id= (public)
func (h *DiscountHandler) FindBest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	menteeID, err := utils.ParseID(query.Get("mentee_id"))
	if err != nil {
		utils.ResponseBadRequest(w, "mentee_id is required", map[string]string{"mentee_id": err.Error()})
		return
	}
	planID, err := utils.ParseID(query.Get("plan_id"))
	if err != nil {
		utils.ResponseBadRequest(w, "plan_id is required", map[string]string{"plan_id": err.Error()})
		return
	}

	best, err := h.service.FindBestDiscount(r.Context(), &request.BestDiscountRequest{MenteeID: menteeID, PlanID: planID})
	if err != nil {
		writeServiceError(w, h.log, err, "find best discount")
		return
	}

	utils.ResponseSuccess(w, "success", best)
}

// ListForPlan handles GET /discounts/all?plan_id=[&mentee_id=] (public)
func (h *DiscountHandler) ListForPlan(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	planID, err := utils.ParseID(query.Get("plan_id"))
	if err != nil {
		utils.ResponseBadRequest(w, "plan_id is required", map[string]string{"plan_id": err.Error()})
		return
	}

	req := &request.PlanDiscountsRequest{PlanID: planID}
	if raw := query.Get("mentee_id"); raw != "" {
		menteeID, err := utils.ParseID(raw)
		if err != nil {
			utils.ResponseBadRequest(w, "Invalid mentee_id", nil)
			return
		}
		req.MenteeID = &menteeID
	}

	discounts, err := h.service.GetAllDiscountsForPlan(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "list plan discounts")
		return
	}

	utils.ResponseSuccess(w, "success", discounts)
}
