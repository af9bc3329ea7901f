// Package server wires the HTTP surface: middleware, routes, and handlers.
package server

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"blogpose/internal/cache"
	"blogpose/internal/config"
	"blogpose/internal/mailer"
	"blogpose/internal/middleware"
	"blogpose/internal/models"
	"blogpose/internal/repository"
	"blogpose/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	jwtIssuer     = "blogpose-api"
	jwtAudience   = "blogpose-client"
	sessionCookie = "blogpose_session"
)

// Server holds all application dependencies and the fiber app.
type Server struct {
	config *config.Config
	db     *gorm.DB
	redis  *redis.Client
	app    *fiber.App

	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository

	authService    *service.AuthService
	resetService   *service.PasswordResetService
	postService    *service.PostService
	commentService *service.CommentService

	sweeperCancel context.CancelFunc
}

// NewServer builds a Server from configuration, connecting to postgres and redis.
func NewServer(cfg *config.Config, db *gorm.DB) *Server {
	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps builds a Server with explicit database and redis handles.
// Tests use this with an in-memory sqlite DB and miniredis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Server {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	var m mailer.Mailer
	if cfg.SMTPHost != "" {
		m = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		m = mailer.NewLogMailer(middleware.Logger)
	}

	s := &Server{
		config:      cfg,
		db:          db,
		redis:       rdb,
		userRepo:    userRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,

		authService:    service.NewAuthService(userRepo),
		resetService:   service.NewPasswordResetService(userRepo, m, cfg.BaseURL, time.Duration(cfg.ResetTokenTTL)*time.Second),
		postService:    service.NewPostService(postRepo, userRepo),
		commentService: service.NewCommentService(commentRepo, postRepo),
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "blogpose",
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: s.errorHandler,
	})

	s.SetupMiddleware()
	s.SetupRoutes()
	return s
}

// App exposes the underlying fiber app, mainly for app.Test in handler tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		"path", c.Path(), "error", err)
	return models.RespondWithError(c, code, models.NewInternalError(err))
}

// SetupMiddleware registers the global middleware chain. Order matters:
// CORS runs before the limiter so preflights are never rate limited.
func (s *Server) SetupMiddleware() {
	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(middleware.ContextMiddleware())

	prom := fiberprometheus.New("blogpose")
	prom.RegisterAt(s.app, "/metrics")
	s.app.Use(prom.Middleware)

	s.app.Use(helmet.New())
	s.app.Use(middleware.TracingMiddleware())
	s.app.Use(middleware.StructuredLogger())

	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	if s.config.Env != "test" {
		s.app.Use(limiter.New(limiter.Config{
			Max:        100,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions
			},
		}))
	}
}

// SetupRoutes registers every HTTP route.
func (s *Server) SetupRoutes() {
	s.app.Get("/health/live", s.LivenessCheck)
	s.app.Get("/health/ready", s.ReadinessCheck)

	api := s.app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 5, time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Post("/resetpassword", middleware.RateLimit(s.redis, 5, time.Minute, "resetpassword"), s.RequestPasswordReset)
	auth.Post("/resetpassword/:token", middleware.RateLimit(s.redis, 10, time.Minute, "resetpassword"), s.ResetPassword)

	account := api.Group("/account", s.AuthRequired())
	account.Get("/", s.GetAccount)
	account.Put("/", s.UpdateAccount)

	api.Get("/feeds", s.AuthRequired(), s.GetFeeds)
	api.Get("/users/:username/posts", s.AuthRequired(), s.GetUserPosts)

	posts := api.Group("/posts")
	posts.Post("/", s.AuthRequired(), middleware.RateLimit(s.redis, 20, time.Minute, "createpost"), s.CreatePost)
	posts.Get("/:id", s.OptionalAuth(), s.GetPost)
	posts.Put("/:id", s.AuthRequired(), s.UpdatePost)
	posts.Delete("/:id", s.AuthRequired(), s.DeletePost)
	posts.Post("/:id/comments", s.AuthRequired(), middleware.RateLimit(s.redis, 30, time.Minute, "createcomment"), s.CreateComment)
	posts.Get("/:id/comments", s.OptionalAuth(), s.GetComments)
	posts.Post("/:id/like", s.AuthRequired(), s.ToggleLike)
}

// AuthRequired validates the session token from the cookie or the
// Authorization header. Unauthenticated requests get a 401 with a
// redirect hint carrying the original path.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := s.validateSession(c)
		if err != nil {
			return s.respondUnauthenticated(c)
		}
		return s.attachSession(c, claims)
	}
}

// OptionalAuth resolves the viewer when a valid session is present but
// lets anonymous requests through. Used on public read endpoints so
// per-viewer fields (Liked) resolve for logged-in readers.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := s.validateSession(c)
		if err != nil {
			return c.Next()
		}
		return s.attachSession(c, claims)
	}
}

func (s *Server) validateSession(c *fiber.Ctx) (jwt.MapClaims, error) {
	tokenString := c.Cookies(sessionCookie)
	if tokenString == "" {
		authHeader := c.Get("Authorization")
		const prefix = "Bearer "
		if len(authHeader) > len(prefix) && authHeader[:len(prefix)] == prefix {
			tokenString = authHeader[len(prefix):]
		}
	}
	if tokenString == "" {
		return nil, fmt.Errorf("no session token")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithIssuer(jwtIssuer), jwt.WithAudience(jwtAudience))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}

	// A blacklisted jti means the session was revoked by logout.
	if jti, _ := claims["jti"].(string); jti != "" && s.redis != nil {
		n, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
		if err == nil && n > 0 {
			return nil, fmt.Errorf("session revoked")
		}
	}

	return claims, nil
}

func (s *Server) attachSession(c *fiber.Ctx, claims jwt.MapClaims) error {
	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || userID == 0 {
		return s.respondUnauthenticated(c)
	}

	c.Locals("userID", uint(userID))
	if jti, _ := claims["jti"].(string); jti != "" {
		c.Locals("jti", jti)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.Locals("sessionExp", exp.Time)
	}

	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
	c.SetUserContext(ctx)
	return c.Next()
}

func (s *Server) respondUnauthenticated(c *fiber.Ctx) error {
	next := url.QueryEscape(c.OriginalURL())
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":    "Authentication required",
		"code":     "UNAUTHORIZED",
		"redirect": "/login?next=" + next,
	})
}

// LivenessCheck handles GET /health/live.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ReadinessCheck handles GET /health/ready. Unhealthy dependencies mean 503.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	checks := fiber.Map{"database": "ok", "redis": "ok"}
	healthy := true

	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(c.Context()) != nil {
		checks["database"] = "unreachable"
		healthy = false
	}

	if s.redis == nil {
		checks["redis"] = "not configured"
	} else if err := s.redis.Ping(c.Context()).Err(); err != nil {
		checks["redis"] = "unreachable"
		healthy = false
	}

	status := fiber.StatusOK
	if !healthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"status": checks})
}

// Start launches the reset-token sweeper and blocks serving HTTP.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.sweeperCancel = cancel
	go s.resetService.RunSweeper(ctx, time.Duration(s.config.ResetSweepInterval)*time.Second)

	middleware.Logger.Info("server listening", "port", s.config.Port, "env", s.config.Env)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown drains in-flight requests and closes dependencies.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.sweeperCancel != nil {
		s.sweeperCancel()
	}

	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("fiber shutdown: %w", err)
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			middleware.Logger.Warn("closing database", "error", err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Warn("closing redis", "error", err)
		}
	}
	return nil
}
