// Package routes maps the HTTP surface onto the handlers and their guards.
package routes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"parlour/booking"
	"parlour/catalog"
	"parlour/metrics"
	"parlour/middleware"
	"parlour/pay"
	"parlour/ratelim"
	"parlour/reviews"
	"parlour/users"
	"parlour/utils"
)

// Deps is everything the router hands requests to.
type Deps struct {
	Tokens  middleware.TokenVerifier
	Roles   middleware.RoleLookup
	Limiter *ratelim.RateLimiter

	Users    *users.Handler
	Bookings *booking.Handler
	Payments *pay.Handler
	Reviews  *reviews.Handler
	Catalog  *catalog.Handler

	// Ready reports whether the backing store answers.
	Ready func(ctx context.Context) error
}

// New builds the router with every route registered.
func New(d Deps) *httprouter.Router {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, http.StatusNotFound, "not found")
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		zerolog.Ctx(r.Context()).Error().Interface("panic", v).Str("path", r.URL.Path).Msg("handler panicked")
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}

	RoutesWrapper(router, d)
	return router
}

// RoutesWrapper registers all route groups on router.
func RoutesWrapper(router *httprouter.Router, d Deps) {
	AddSystemRoutes(router, d)
	AddUserRoutes(router, d)
	AddBookingRoutes(router, d)
	AddPayRoutes(router, d)
	AddReviewsRoutes(router, d)
	AddCatalogRoutes(router, d)
}

func AddSystemRoutes(router *httprouter.Router, d Deps) {
	router.GET("/", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, "Hello jerins parlour server")
	})
	router.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "ok"})
	})
	router.GET("/ready", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if d.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ready(ctx); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
				utils.RespondWithJSON(w, http.StatusServiceUnavailable, utils.M{"status": "unavailable"})
				return
			}
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "ready"})
	})
	router.Handler(http.MethodGet, "/metrics", metrics.Handler())
}

func AddUserRoutes(router *httprouter.Router, d Deps) {
	router.PUT("/user/:email", middleware.Chain(d.Limiter.Limit)(d.Users.UpsertUser))
	router.GET("/user/:email", d.Users.GetUser)
	router.GET("/admin/:email", d.Users.CheckAdmin)
	router.PATCH("/user/admin/:email", middleware.Protect(d.Users.MakeAdmin,
		middleware.Authenticated(d.Tokens),
		middleware.Admin(d.Roles),
	))
}

// AddBookingRoutes registers the booking endpoints. GET /booking/:id takes
// the owner's email; it shares the wildcard name with PATCH /booking/:id.
func AddBookingRoutes(router *httprouter.Router, d Deps) {
	router.POST("/booking", d.Bookings.CreateBooking)
	router.GET("/booking", d.Bookings.ListBookings)
	router.GET("/booking/:id", middleware.Protect(d.Bookings.ListOwnBookings,
		middleware.Authenticated(d.Tokens),
		middleware.SelfOnly("id"),
	))
	router.DELETE("/booked/:id", d.Bookings.DeleteBooking)
	router.GET("/payment/:id", d.Bookings.GetBooking)
}

func AddPayRoutes(router *httprouter.Router, d Deps) {
	router.POST("/create-payment-intent", middleware.Chain(d.Limiter.Limit)(d.Payments.CreatePaymentIntent))
	router.PATCH("/booking/:id", d.Payments.ConfirmPayment)
	router.GET("/payment/:id/receipt", middleware.Protect(d.Payments.Receipt,
		middleware.Authenticated(d.Tokens),
	))
}

func AddReviewsRoutes(router *httprouter.Router, d Deps) {
	router.POST("/review", middleware.Protect(d.Reviews.AddReview, middleware.Authenticated(d.Tokens)))
	router.GET("/reviews", d.Reviews.GetReviews)
}

func AddCatalogRoutes(router *httprouter.Router, d Deps) {
	router.POST("/services", middleware.Protect(d.Catalog.AddService, middleware.Authenticated(d.Tokens)))
	router.GET("/services", d.Catalog.GetServices)
}
