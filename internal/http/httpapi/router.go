package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"charitymatch/internal/http/handlers"
	"charitymatch/internal/infra"
	"charitymatch/internal/middleware"
)

// Options carries the cross-cutting settings of the router.
type Options struct {
	JWTSecret       string
	AllowedOrigins  []string
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(app.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", infra.MetricsHandler())
	r.Get("/v1/feedback/published", app.PublishedFeedback)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}

		r.Route("/v1/donations", func(r chi.Router) {
			r.Post("/", app.SubmitListing(app.Donations))
			r.Get("/mine", app.ListMyListings(app.Donations))
			r.Get("/{id}", app.GetListing(app.Donations))
		})

		r.Route("/v1/requests", func(r chi.Router) {
			r.Post("/", app.SubmitListing(app.Requests))
			r.Get("/mine", app.ListMyListings(app.Requests))
			r.Get("/{id}", app.GetListing(app.Requests))
			r.Post("/{id}/interests", app.ExpressInterest)
			r.Get("/{id}/interests", app.ListRequestInterests)
		})

		r.Get("/v1/interests/{id}", app.GetInterest)

		r.Route("/v1/matches", func(r chi.Router) {
			r.Get("/mine", app.ListMyMatches)
			r.Get("/{id}", app.GetMatch)
			r.Post("/{id}/feedback", app.SubmitFeedback)
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", app.ListNotifications)
			r.Delete("/", app.ClearNotifications)
			r.Get("/unread-count", app.UnreadNotificationCount)
			r.Post("/read-all", app.MarkAllNotificationsRead)
			r.Post("/{id}/read", app.MarkNotificationRead)
			r.Delete("/{id}", app.DeleteNotification)
		})

		r.Get("/v1/feedback/eligible", app.EligibleFeedbackMatches)
		r.Patch("/v1/feedback/{id}", app.UpdateFeedback)
		r.Delete("/v1/feedback/{id}", app.DeleteFeedback)

		r.Route("/v1/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get("/stats", app.StatsSummary)

			r.Route("/donations", func(r chi.Router) {
				r.Get("/", app.ListListings(app.Donations))
				r.Get("/counts", app.ListingCounts(app.Donations))
				r.Post("/bulk-approve", app.BulkApproveListings(app.Donations))
				r.Post("/{id}/approve", app.ApproveListing(app.Donations))
				r.Post("/{id}/reject", app.RejectListing(app.Donations))
			})

			r.Route("/requests", func(r chi.Router) {
				r.Get("/", app.ListListings(app.Requests))
				r.Get("/counts", app.ListingCounts(app.Requests))
				r.Post("/bulk-approve", app.BulkApproveListings(app.Requests))
				r.Post("/{id}/approve", app.ApproveListing(app.Requests))
				r.Post("/{id}/reject", app.RejectListing(app.Requests))
			})

			r.Route("/interests", func(r chi.Router) {
				r.Get("/", app.ListInterests)
				r.Get("/counts", app.InterestCounts)
				r.Post("/bulk-approve", app.BulkApproveInterests)
				r.Post("/{id}/approve", app.ApproveInterest)
				r.Post("/{id}/reject", app.RejectInterest)
			})

			r.Route("/matches", func(r chi.Router) {
				r.Get("/", app.ListMatches)
				r.Post("/", app.CreateMatch)
				r.Get("/counts", app.MatchCounts)
				r.Post("/{id}/execute", app.ExecuteMatch)
				r.Post("/{id}/complete", app.CompleteMatch)
			})

			r.Route("/feedback", func(r chi.Router) {
				r.Get("/", app.ListFeedback)
				r.Get("/counts", app.FeedbackCounts)
				r.Post("/{id}/approve", app.ApproveFeedback)
				r.Post("/{id}/reject", app.RejectFeedback)
				r.Post("/{id}/feature", app.FeatureFeedback)
				r.Post("/{id}/respond", app.RespondFeedback)
				r.Delete("/{id}", app.AdminDeleteFeedback)
			})

			if app.Relay != nil {
				r.Post("/outbox/replay-failed", app.ReplayFailedEvents)
				r.Post("/outbox/{id}/replay", app.ReplayEvent)
			}
		})
	})

	return r
}
