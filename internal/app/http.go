package app

import (
	"context"
	"fmt"
	"net/http"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/auth/credentials"
	"auth-gateway/internal/auth/flow"
	"auth-gateway/internal/auth/github"
	"auth-gateway/internal/auth/handler"
	"auth-gateway/internal/config"
	"auth-gateway/internal/middleware"
	"auth-gateway/internal/session"
	"auth-gateway/internal/users"

	"github.com/gin-gonic/gin"
)

func setupHTTP(
	ctx context.Context,
	cfg config.Config,
) (*gin.Engine, session.Store, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	var sessionStore session.Store
	switch cfg.SessionBackend {
	case "postgres":
		sessionStore = session.NewPostgresStore(infra.DB)
	case "redis":
		sessionStore = session.NewRedisStore(infra.Redis.Client)
	case "memory":
		sessionStore = session.NewMemoryStore()
	default:
		return nil, nil, nil, fmt.Errorf("unknown session backend: %s", cfg.SessionBackend)
	}

	creds, err := credentials.LoadFile(cfg.UsersFile)
	if err != nil {
		return nil, nil, nil, err
	}

	backend := auth.NewGatewayBackend(
		creds,
		github.NewClient(),
		users.NewPostgresStore(infra.DB),
	)

	oauthFlow := flow.New(
		cfg.GithubClientID,
		cfg.GithubClientSecret,
		cfg.GithubRedirectURL,
		backend,
	)

	sessionManager := middleware.NewSessionManager(
		sessionStore,
		backend,
		session.CookieOptions{
			HttpOnly: true,
			Secure:   cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		},
	)

	authHandler := handler.NewHandler(oauthFlow, backend)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	// Liveness stays outside the session layer so probes never allocate
	// sessions.
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.Use(sessionManager.Handler())

	// ----------------------------
	// Public routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	// ----------------------------
	// Protected routes
	// ----------------------------

	protected := router.Group("/")
	protected.Use(middleware.RequireAuth())

	protected.GET("/", func(c *gin.Context) {
		st := middleware.FromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"username": st.User().Username,
		})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, sessionStore, func() error {
		return infra.DB.Close()
	}, nil
}
