package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LoginURL is where unauthenticated requests are sent.
const LoginURL = "/login"

// RequireAuth gates a route on the identity the session middleware already
// resolved. Absent user means a redirect to the login page, never a 5xx.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		st := FromContext(c.Request.Context())
		if st == nil || st.User() == nil {
			c.Redirect(http.StatusFound, LoginURL)
			c.Abort()
			return
		}

		c.Next()
	}
}
