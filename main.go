package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/KarinaChumak/tour-booking-system/internal/auth"
	intconfig "github.com/KarinaChumak/tour-booking-system/internal/config"
	intdb "github.com/KarinaChumak/tour-booking-system/internal/db"
	router "github.com/KarinaChumak/tour-booking-system/internal/http"
	"github.com/KarinaChumak/tour-booking-system/internal/http/handlers"
	"github.com/KarinaChumak/tour-booking-system/internal/http/middleware"
	"github.com/KarinaChumak/tour-booking-system/internal/mailer"
	"github.com/KarinaChumak/tour-booking-system/internal/payments"
	"github.com/KarinaChumak/tour-booking-system/internal/repositories"
	"github.com/KarinaChumak/tour-booking-system/internal/services"
	"github.com/KarinaChumak/tour-booking-system/internal/storage"
	"github.com/KarinaChumak/tour-booking-system/internal/utils"
)

func main() {
	env := intconfig.LoadEnv()
	utils.NewLogger(env.AppEnv, os.Stdout)
	if err := env.Validate(); err != nil {
		fatal("invalid configuration", err)
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	ctx := context.Background()

	db, err := intconfig.ConnectDB(ctx, env.DatabaseDSN)
	if err != nil {
		fatal("database connection failed", err)
	}
	defer db.Close()

	if env.DBAutoMigrate {
		if err := intdb.Migrate(ctx, db); err != nil {
			fatal("migration failed", err)
		}
	}

	var redisClient *redis.Client
	if env.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     env.Redis.Addr,
			Password: env.Redis.Password,
			DB:       env.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, rate limiting fails open", "error", err)
		}
	} else {
		slog.Warn("REDIS_ADDR not set, rate limiting disabled")
	}

	secret := env.JWTSecret
	if secret == "" {
		secret = devSecret()
		slog.Warn("JWT_SECRET not set, using a random secret; sessions end on restart")
	}

	var store storage.ObjectStore = storage.DiskStore{Root: filepath.Join(env.StaticDir, "img")}
	if env.S3.Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, env.S3)
		if err != nil {
			fatal("s3 setup failed", err)
		}
		store = s3Store
	}

	var sender mailer.Sender = mailer.LogSender{}
	if env.Email.Host != "" {
		sender = mailer.NewSMTPSender(env.Email)
	}
	mail, err := mailer.New(sender)
	if err != nil {
		fatal("mailer setup failed", err)
	}

	users := repositories.UserRepository{DB: db}
	tours := repositories.TourRepository{DB: db}
	reviews := repositories.ReviewRepository{DB: db}
	bookings := repositories.BookingRepository{DB: db}

	authSvc := services.NewAuthService(users, auth.NewTokenManager(secret, env.JWTExpiresIn), auth.BcryptHasher{}, mail)
	tourSvc := services.TourService{Tours: tours, Reviews: reviews, Guides: users}

	deps := router.Deps{
		Env:     env,
		DB:      db,
		Auth:    authSvc,
		Tours:   tourSvc,
		Reviews: services.ReviewService{Reviews: reviews, Tours: tours},
		Bookings: services.BookingService{
			Bookings:     bookings,
			Tours:        tours,
			Users:        users,
			Payments:     payments.NewStripeProvider(env.Stripe),
			Tickets:      services.DocsService{Tours: tours},
			ImageBaseURL: env.S3.PublicBaseURL,
		},
		Users:  services.UserService{Users: users, Hasher: auth.BcryptHasher{}},
		Images: services.ImageService{Store: store},
	}
	if env.GoogleAPIKey != "" {
		deps.Geo = services.NewGeocodingService(env.GoogleAPIKey)
	}
	if redisClient != nil {
		deps.Limiter = middleware.NewRateLimiter(redisClient, env.RateLimit.Requests, env.RateLimit.Window)
	}
	deps.Templates = loadTemplates(env.TemplatesGlob)

	r := router.NewRouter(deps)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", env.AppAddr, "env", env.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		fatal("server shutdown failed", err)
	}

	slog.Info("server stopped")
}

// loadTemplates returns nil when no page templates are available, which
// leaves the server API only.
func loadTemplates(glob string) *template.Template {
	if glob == "" {
		return nil
	}
	if matches, _ := filepath.Glob(glob); len(matches) == 0 {
		slog.Warn("no page templates found, views disabled", "glob", glob)
		return nil
	}
	t, err := handlers.LoadTemplates(glob)
	if err != nil {
		fatal("template parse failed", err)
	}
	return t
}

func devSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		fatal("generate jwt secret", err)
	}
	return hex.EncodeToString(b)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
