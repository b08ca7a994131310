package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/teslimakintunde/shortlets-backend-api/internal/config"
	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/booking"
	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/card"
	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/listing"
	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/payment"
	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/user"
	"github.com/teslimakintunde/shortlets-backend-api/internal/metrics"
	"github.com/teslimakintunde/shortlets-backend-api/internal/middleware"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/jwt"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/response"
)

// Gateway is everything the engine asks of the payment provider.
type Gateway interface {
	payment.Gateway
	card.Gateway
}

type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Gateway  Gateway
	Cipher   card.Cipher
	Log      *zap.Logger
	Registry *prometheus.Registry
}

// App is the assembled engine: services, the HTTP router and the
// reconciliation scheduler.
type App struct {
	Router    *gin.Engine
	Payments  *payment.Service
	Cards     *card.Service
	Bookings  *booking.Service
	Scheduler *payment.Scheduler
}

// New wires repositories, services and handlers. locker may be nil, in
// which case every instance runs its own sweep.
func New(d Deps, locker payment.Locker) *App {
	cfg := d.Config
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	var m *metrics.Metrics
	if d.Registry != nil {
		m = metrics.New(d.Registry)
	}

	users := user.NewRepository()
	listings := listing.NewRepository()
	bookings := booking.NewRepository()

	paymentService := payment.NewService(payment.Deps{
		DB:       d.DB,
		Gateway:  d.Gateway,
		Payments: payment.NewRepository(),
		Bookings: bookings,
		Listings: listings,
		Log:      log,
		Metrics:  m,
		Config: payment.Config{
			SupportedCurrencies: cfg.Currencies.Supported,
			DefaultCurrency:     cfg.Currencies.Default,
			PublishableKey:      cfg.Stripe.PublishableKey,
			ConfirmAttempts:     cfg.Confirm.MaxAttempts,
			StaleAfter:          cfg.Reconciler.StaleAfter,
			BatchSize:           cfg.Reconciler.BatchSize,
			UnreachablePolicy:   cfg.Reconciler.UnreachablePolicy,
		},
	})

	cardService := card.NewService(card.Deps{
		DB:      d.DB,
		Gateway: d.Gateway,
		Cipher:  d.Cipher,
		Cards:   card.NewRepository(),
		Users:   users,
		Log:     log,
		Metrics: m,
	})

	bookingService := booking.NewService(d.DB, bookings, listings, log, cfg.Reconciler.StaleAfter)

	scheduler := payment.NewScheduler(paymentService, locker)

	router := newRouter(routerDeps{
		cfg:      cfg,
		db:       d.DB,
		log:      log,
		metrics:  m,
		registry: d.Registry,
		jwt:      jwt.New(cfg.JWTSecret, cfg.JWTTTL),
		payments: payment.NewHandler(paymentService),
		cards:    card.NewHandler(cardService),
		bookings: booking.NewHandler(bookingService),
	})

	return &App{
		Router:    router,
		Payments:  paymentService,
		Cards:     cardService,
		Bookings:  bookingService,
		Scheduler: scheduler,
	}
}

type routerDeps struct {
	cfg      *config.Config
	db       *gorm.DB
	log      *zap.Logger
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	jwt      *jwt.Service
	payments *payment.Handler
	cards    *card.Handler
	bookings *booking.Handler
}

func newRouter(d routerDeps) *gin.Engine {
	if d.cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(d.log))
	r.Use(middleware.Metrics(d.metrics))
	r.Use(middleware.CORS(d.cfg.CORSAllowedOrigins))

	r.GET("/health", health(d.db))
	if d.registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")

	// public: the gateway signs its callbacks instead
	d.payments.RegisterWebhookRoutes(api)

	protected := api.Group("")
	protected.Use(middleware.JWTAuth(d.jwt))
	{
		d.cards.RegisterRoutes(protected)
		d.payments.RegisterProtectedRoutes(protected)
		d.bookings.RegisterRoutes(protected)
	}

	staff := api.Group("")
	staff.Use(middleware.JWTAuth(d.jwt), middleware.StaffOnly())
	{
		d.payments.RegisterStaffRoutes(staff)
		d.bookings.RegisterStaffRoutes(staff)
	}

	return r
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			response.Error(c, http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "database is not reachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
