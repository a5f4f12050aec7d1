package wire

import (
	"net/http"

	"mentor-booking/internal/adaptor"
	"mentor-booking/internal/data/entity"
	"mentor-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireSlot(
	r chi.Router,
	slotHandler *adaptor.SlotHandler,
	auth func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	// GET /slots/plans/{planId} - browse a plan's calendar (public)
	r.Get("/slots/plans/{planId}", slotHandler.ListSlots)

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(middleware.RequireRole(log, entity.RoleMentor, entity.RoleAdmin))

		r.Post("/slots/plans/{planId}", slotHandler.CreateSlot)
		r.Patch("/slots/plans/{planId}/cancel", slotHandler.CancelSlot)
		r.Patch("/slots/plans/{planId}/release", slotHandler.ReleaseSlot)
	})
}
