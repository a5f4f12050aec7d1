package wire

import (
	"mentor-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireDiscount(r chi.Router, discountHandler *adaptor.DiscountHandler) {
	// GET /discounts/best?mentee_id=&plan_id= (public)
	r.Get("/discounts/best", discountHandler.FindBest)

	// GET /discounts/all?plan_id= (public)
	r.Get("/discounts/all", discountHandler.ListForPlan)
}
