package handler

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"ypg-admin-api/internal/middleware"
)

// Rate limited endpoint identifiers. Each keeps its own counters.
const (
	EndpointSubmitDonation = "donation_submit"
	EndpointProcessPayment = "process_payment"
	EndpointLogin          = "supervisor_login"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	RateLimiter    *middleware.RateLimiter
	Verifier       middleware.TokenVerifier
	Logger         *zap.Logger
	AllowedOrigins []string

	Window     time.Duration
	SubmitMax  int
	PaymentMax int
	LoginMax   int
}

// NewRouter mounts every API route on a chi router.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	// Credentials are only shared with an explicit origin list.
	allowCredentials := !slices.Contains(opts.AllowedOrigins, "*")

	r := chi.NewRouter()

	// Middleware (order matters)
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.TracingMiddleware())
	r.Use(middleware.Metrics())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	}))

	limit := func(endpoint string, max int) func(http.Handler) http.Handler {
		if opts.RateLimiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return opts.RateLimiter.Middleware(endpoint, max, opts.Window)
	}
	supervisor := middleware.RequireSupervisor(opts.Verifier)

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.With(limit(EndpointLogin, opts.LoginMax)).Post("/login/", h.Login)
		r.With(supervisor).Get("/status/", h.AuthStatus)
		r.With(supervisor).Post("/credentials/", h.ChangeCredentials)
	})

	r.Route("/api/donations", func(r chi.Router) {
		r.With(limit(EndpointSubmitDonation, opts.SubmitMax)).Post("/submit/", h.SubmitDonation)
		r.With(limit(EndpointProcessPayment, opts.PaymentMax)).Post("/process-payment/", h.ProcessPayment)

		r.Group(func(r chi.Router) {
			r.Use(supervisor)
			r.Get("/", h.ListDonations)
			r.Post("/{id}/verify/", h.VerifyDonation)
			r.Post("/{id}/cancel/", h.CancelDonation)
			r.Delete("/{id}/delete/", h.DeleteDonation)
		})
	})

	r.Route("/api/blog", func(r chi.Router) {
		r.Get("/", h.ListBlogPosts)
		r.Get("/{slug}/", h.GetBlogPost)

		r.Group(func(r chi.Router) {
			r.Use(supervisor)
			r.Get("/all/", h.ListAllBlogPosts)
			r.Post("/create/", h.CreateBlogPost)
			r.Put("/{slug}/update/", h.UpdateBlogPost)
			r.Delete("/{slug}/delete/", h.DeleteBlogPost)
			r.Post("/{slug}/restore/", h.RestoreBlogPost)
		})
	})

	r.Route("/api/team", func(r chi.Router) {
		r.Get("/", h.ListTeamMembers)

		r.Group(func(r chi.Router) {
			r.Use(supervisor)
			r.Post("/create/", h.CreateTeamMember)
			r.Put("/{id}/update/", h.UpdateTeamMember)
			r.Delete("/{id}/delete/", h.DeleteTeamMember)
		})
	})

	return r
}
