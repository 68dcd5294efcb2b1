package api

import (
	"database/sql"
	"html/template"
	"log/slog"
	"path/filepath"

	"github.com/gin-gonic/gin"

	intconfig "github.com/KarinaChumak/tour-booking-system/internal/config"
	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	h "github.com/KarinaChumak/tour-booking-system/internal/http/handlers"
	"github.com/KarinaChumak/tour-booking-system/internal/http/middleware"
	"github.com/KarinaChumak/tour-booking-system/internal/services"
)

// Deps are the wired services the router exposes.
type Deps struct {
	Env      intconfig.Env
	DB       *sql.DB
	Auth     *services.AuthService
	Tours    services.TourService
	Reviews  services.ReviewService
	Bookings services.BookingService
	Users    services.UserService
	Images   services.ImageService
	Geo      *services.GeocodingService
	Limiter  *middleware.RateLimiter
	// Templates enables the rendered pages. Without them only the API is served.
	Templates *template.Template
}

func NewRouter(d Deps) *gin.Engine {
	views := d.Templates != nil

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		gin.Recovery(),
		middleware.CORS(d.Env.CORSAllowedOrigins),
		middleware.ErrorHandler(d.Env.IsDevelopment(), views),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		slog.Warn("failed to set trusted proxies", "error", err)
	}

	r.NoRoute(h.NoRoute)

	system := h.SystemHandler{DB: d.DB}
	r.GET("/api/health", system.Health)
	r.GET("/api/db-check", system.DBCheck)
	r.GET("/api/routes", system.Routes)

	authH := h.AuthHandler{Auth: d.Auth, CookieDays: d.Env.JWTCookieExpiresDays}
	tourH := h.TourHandler{Tours: d.Tours, Images: d.Images}
	reviewH := h.ReviewHandler{Reviews: d.Reviews}
	bookingH := h.BookingHandler{Bookings: d.Bookings}
	userH := h.UserHandler{Users: d.Users, Images: d.Images}

	protect := middleware.Protect(d.Auth)
	staff := middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide)

	// Stripe posts raw events here, outside the versioned API.
	r.POST("/webhook-checkout", bookingH.Webhook)

	v1 := r.Group("/api/v1")
	{
		// Tours
		tours := v1.Group("/tours")
		tours.GET("", tourH.List())
		tours.POST("", protect, staff, tourH.Create())
		tours.GET("/top-5-tours", h.AliasTopTours, tourH.List())
		tours.GET("/tour-stats", tourH.Stats)
		tours.GET("/monthly-plan/:year", protect,
			middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide), tourH.MonthlyPlan)
		tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", tourH.Within)
		tours.GET("/distances/:latlng/unit/:unit", tourH.Distances)
		tours.GET("/tour/:slug", tourH.GetBySlug)
		tours.GET("/:id", tourH.Get)
		tours.PATCH("/:id", protect, staff, tourH.Update)
		tours.DELETE("/:id", protect, staff, tourH.Delete())

		// Reviews nested under a tour
		tours.GET("/:id/reviews", protect, reviewH.ListForTour())
		tours.POST("/:id/reviews", protect, middleware.RestrictTo(domain.RoleUser), reviewH.Create())

		// Users
		users := v1.Group("/users")
		users.POST("/signup", d.Limiter.Middleware("signup"), authH.Signup)
		users.POST("/login", d.Limiter.Middleware("login"), authH.Login)
		users.GET("/logout", authH.Logout)
		users.POST("/forgotPassword", d.Limiter.Middleware("forgotPassword"), authH.ForgotPassword)
		users.PATCH("/resetPassword/:token", authH.ResetPassword)

		me := users.Group("", protect)
		me.PATCH("/updatePassword", authH.UpdatePassword)
		me.GET("/me", userH.GetMe)
		me.PATCH("/updateMe", userH.UpdateMe)
		me.DELETE("/deleteMe", userH.DeleteMe)

		admin := users.Group("", protect, middleware.RestrictTo(domain.RoleAdmin))
		admin.GET("", userH.List())
		admin.POST("", userH.Create)
		admin.GET("/:id", userH.Get())
		admin.PATCH("/:id", userH.Update())
		admin.DELETE("/:id", userH.Delete())

		// Reviews
		reviews := v1.Group("/reviews", protect)
		reviews.GET("", reviewH.List())
		reviews.POST("", middleware.RestrictTo(domain.RoleUser), reviewH.Create())
		reviews.GET("/:id", reviewH.Get())
		reviews.PATCH("/:id", middleware.RestrictTo(domain.RoleUser, domain.RoleAdmin), reviewH.Update())
		reviews.DELETE("/:id", middleware.RestrictTo(domain.RoleUser, domain.RoleAdmin), reviewH.Delete())

		// Bookings
		bookings := v1.Group("/bookings", protect)
		bookings.GET("/checkout-session/:tourId", bookingH.CheckoutSession)
		bookings.GET("/:id/ticket", bookingH.Ticket)
		bookings.GET("", staff, bookingH.List())
		bookings.POST("", staff, bookingH.Create())
		bookings.GET("/:id", staff, bookingH.Get())
		bookings.PATCH("/:id", staff, bookingH.Update())
		bookings.DELETE("/:id", staff, bookingH.Delete())

		// Geocoding
		if d.Geo != nil {
			geoH := h.GeocodingHandler{Geo: d.Geo}
			v1.GET("/geocoding/details/:placeId", geoH.PlaceDetails)
		}
	}

	if views {
		mountViews(r, d)
	}

	h.SetRouter(r)
	return r
}

func mountViews(r *gin.Engine, d Deps) {
	r.SetHTMLTemplate(d.Templates)
	if dir := d.Env.StaticDir; dir != "" {
		for _, sub := range []string{"css", "js", "img"} {
			r.Static("/"+sub, filepath.Join(dir, sub))
		}
	}

	viewH := h.ViewHandler{
		Tours:        d.Tours,
		Bookings:     d.Bookings,
		Users:        d.Users,
		ImageBaseURL: d.Env.S3.PublicBaseURL,
	}
	isLoggedIn := middleware.IsLoggedIn(d.Auth)
	protect := middleware.Protect(d.Auth)

	pages := r.Group("", h.Alerts)
	pages.GET("/", isLoggedIn, viewH.Overview)
	pages.GET("/tour/:slug", isLoggedIn, viewH.Tour)
	pages.GET("/login", isLoggedIn, viewH.Login)
	pages.GET("/me", protect, viewH.Account)
	pages.GET("/my-tours", protect, viewH.MyTours)
	pages.POST("/submit-user-data", protect, viewH.SubmitUserData)
}
