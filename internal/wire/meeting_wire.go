package wire

import (
	"net/http"

	"mentor-booking/internal/adaptor"
	"mentor-booking/internal/data/entity"
	"mentor-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireMeeting(
	r chi.Router,
	meetingHandler *adaptor.MeetingHandler,
	auth func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	r.Route("/meetings", func(r chi.Router) {
		r.Use(auth)

		r.Get("/", meetingHandler.ListMeetings)
		r.Get("/{id}", meetingHandler.GetMeeting)

		// mentor-only mutations
		r.With(middleware.RequireRole(log, entity.RoleMentor)).Put("/{id}/location", meetingHandler.SetLocation)
		r.With(middleware.RequireRole(log, entity.RoleMentor)).Put("/{id}/status", meetingHandler.UpdateStatus)
	})
}
