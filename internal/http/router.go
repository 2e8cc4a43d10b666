package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/coursebank/courseapi/internal/auth"
	"github.com/coursebank/courseapi/internal/cache"
	"github.com/coursebank/courseapi/internal/config"
	"github.com/coursebank/courseapi/internal/http/handlers"
	"github.com/coursebank/courseapi/internal/http/middlewares"
	"github.com/coursebank/courseapi/internal/observability"
	"github.com/coursebank/courseapi/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps carries everything the route table needs. Production wiring lives in
// NewRouter; tests hand in memory stores through NewRouterWith.
type Deps struct {
	Log     *slog.Logger
	Cfg     config.Config
	Users   handlers.UsersStore
	Courses handlers.CoursesStore
	Cache   cache.Store
	Prom    *observability.Prom
	Ping    func() error
}

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, store cache.Store, cfg config.Config) *gin.Engine {
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	coursesRepo := postgres.NewCoursesRepo(pool, prom)

	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	r := NewRouterWith(Deps{
		Log:     log,
		Cfg:     cfg,
		Users:   usersRepo,
		Courses: coursesRepo,
		Cache:   store,
		Prom:    prom,
		Ping:    ping,
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return r
}

func NewRouterWith(deps Deps) *gin.Engine {
	if deps.Cfg.Env != "dev" && deps.Cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(deps.Log))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	r.Use(otelgin.Middleware("courseapi"))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.Cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(deps.Cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// the single auth gate every identity-requiring route goes through
	authenticator := auth.NewAuthenticator(deps.Users, deps.Log)
	gate := middlewares.NewAuthMiddleware(authenticator)

	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	coursesHandler := handlers.NewCoursesHandlerWithCache(deps.Courses, deps.Cache)
	usersHandler := handlers.NewUsersHandler(deps.Users)

	// reads are public, every mutation sits behind the gate
	r.GET("/courses", coursesHandler.ListCourses)
	r.GET("/courses/:id", coursesHandler.GetCourseByID)
	r.POST("/courses", gate.RequireAuth(), coursesHandler.CreateCourse)
	r.PUT("/courses/:id", gate.RequireAuth(), coursesHandler.UpdateCourse)
	r.DELETE("/courses/:id", gate.RequireAuth(), coursesHandler.DeleteCourse)

	r.GET("/users", gate.RequireAuth(), usersHandler.GetCurrentUser)
	r.POST("/users", usersHandler.CreateUser)

	return r
}
