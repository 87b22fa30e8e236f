package handler

import (
	"errors"
	"net/http"

	"auth-gateway/internal/auth"
	"auth-gateway/internal/auth/flow"
	"auth-gateway/internal/logger"
	"auth-gateway/internal/middleware"

	"github.com/gin-gonic/gin"
)

const loginFailedURL = middleware.LoginURL + "?failed=1"

type Handler struct {
	flow    *flow.Flow
	backend auth.Backend
}

func NewHandler(fl *flow.Flow, backend auth.Backend) *Handler {
	return &Handler{
		flow:    fl,
		backend: backend,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/login", h.loginPage)
	r.POST("/login", h.login)
	r.GET("/login/oauth", h.oauthLogin)
	r.GET("/login/oauth/callback", h.oauthCallback)
	r.POST("/logout", h.logout)
}

// loginPage stands in for the rendered login form.
func (h *Handler) loginPage(c *gin.Context) {
	resp := gin.H{"page": "login"}
	if c.Query("failed") != "" {
		resp["error"] = "authentication failed"
	}
	c.JSON(http.StatusOK, resp)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	st := middleware.FromContext(c.Request.Context())

	user, err := h.backend.VerifyDirect(
		c.Request.Context(),
		req.Username,
		req.Password,
	)
	if err != nil {
		// Unknown username and wrong password look identical to the
		// caller.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if err := st.Rotate(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return
	}
	st.SetUser(user)

	logger.Info("login", map[string]any{
		"user_id": user.ID,
		"method":  "direct",
		"ip":      c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{"status": "logged_in"})
}

func (h *Handler) oauthLogin(c *gin.Context) {
	st := middleware.FromContext(c.Request.Context())

	authURL, err := h.flow.Begin(st.Session())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login unavailable"})
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) oauthCallback(c *gin.Context) {
	ctx := c.Request.Context()
	st := middleware.FromContext(ctx)

	user, err := h.flow.Complete(ctx, st.Session(), c.Query("code"), c.Query("state"))
	if err != nil {
		if errors.Is(err, flow.ErrCsrfMismatch) {
			logger.Warn("oauth state mismatch", map[string]any{
				"ip": c.ClientIP(),
			})
		} else {
			logger.Error("oauth login failed", map[string]any{
				"error": err.Error(),
			})
		}

		// The caller only ever sees the generic failure page.
		c.Redirect(http.StatusFound, loginFailedURL)
		return
	}

	if err := st.Rotate(); err != nil {
		c.Redirect(http.StatusFound, loginFailedURL)
		return
	}
	st.SetUser(user)

	logger.Info("login", map[string]any{
		"user_id": user.ID,
		"method":  "oauth",
		"ip":      c.ClientIP(),
	})

	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) logout(c *gin.Context) {
	st := middleware.FromContext(c.Request.Context())

	st.ClearUser()
	if err := st.Rotate(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return
	}

	c.Status(http.StatusNoContent)
}
