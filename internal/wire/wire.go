// internal/wire/wire.go
package wire

import (
	"context"
	"net/http"
	"time"

	"mentor-booking/internal/adaptor"
	"mentor-booking/internal/data/repository"
	"mentor-booking/internal/usecase"
	"mentor-booking/pkg/database"
	"mentor-booking/pkg/mailer"
	"mentor-booking/pkg/metrics"
	"mentor-booking/pkg/middleware"
	"mentor-booking/pkg/payment"
	"mentor-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the router plus what shutdown has to drain.
type App struct {
	Router     *chi.Mux
	Dispatcher *usecase.Dispatcher
}

// Deps are the outside-world adapters the app is built on. Tests swap the
// gateway and sender for fakes.
type Deps struct {
	DB      database.PgxIface
	Gateway payment.Gateway
	Sender  mailer.Sender
	Metrics *metrics.Metrics
}

// Wiring builds repositories, services and handlers from the live adapters.
func Wiring(db database.PgxIface, config *utils.Config, logger *zap.Logger) *App {
	return WiringWith(Deps{
		DB:      db,
		Gateway: payment.NewStripe(config.Stripe, nil, logger),
		Sender:  mailer.New(config.Mail, logger),
		Metrics: metrics.New(),
	}, config, logger)
}

func WiringWith(deps Deps, config *utils.Config, logger *zap.Logger) *App {
	repo := repository.NewRepository(deps.DB, logger)
	txr := repository.NewTransactor(deps.DB, logger)

	dispatcher := usecase.NewDispatcher(repo, deps.Sender, deps.Metrics, config.Mail, logger)
	service := usecase.NewService(repo, txr, deps.Gateway, dispatcher, deps.Metrics, config, logger)
	handler := adaptor.NewHandler(service, config.Booking.DefaultPageSize, logger)

	router := setupRouter(handler, repo, deps, config.App.CORSOrigins, logger)

	return &App{
		Router:     router,
		Dispatcher: dispatcher,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	deps Deps,
	corsOrigins []string,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(corsOrigins))
	r.Use(deps.Metrics.Middleware)

	auth := middleware.AuthSession(repo.Session, logger)

	wireSlot(r, handler.Slot, auth, logger)
	wireDiscount(r, handler.Discount)
	wirePayment(r, handler.Payment, auth, logger)
	wireMeeting(r, handler.Meeting, auth, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := deps.DB.Ping(ctx); err != nil {
			logger.Warn("Health check failed", zap.Error(err))
			utils.ResponseError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		utils.ResponseSuccess(w, "OK", nil)
	})
	r.Handle("/metrics", deps.Metrics.Handler())

	return r
}
