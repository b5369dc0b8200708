package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/requestdata"
	"github.com/draftloop/draftloop-backend/internal/services"
)

const (
	// IdentityCookieName holds the anonymous identity token. Whoever
	// presents it is the user; there are no credentials.
	IdentityCookieName = "user_cookie"

	identityCookieMaxAge = 365 * 24 * 60 * 60
)

// SetIdentityCookie points the identity cookie at the given cookie id for a
// year. HttpOnly keeps it out of reach of page scripts.
func SetIdentityCookie(c *gin.Context, cookieID string) {
	c.SetCookie(IdentityCookieName, cookieID, identityCookieMaxAge, "/", "", false, true)
}

type IdentityMiddleware struct {
	userService services.UserService
	log         *logger.Logger
}

func NewIdentityMiddleware(userService services.UserService, baseLog *logger.Logger) *IdentityMiddleware {
	return &IdentityMiddleware{
		userService: userService,
		log:         baseLog.With("middleware", "IdentityMiddleware"),
	}
}

// Handle resolves (or mints) the anonymous identity behind the request's
// cookie and stashes it on the request context.
func (m *IdentityMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookieID, err := c.Cookie(IdentityCookieName)
		if err != nil || cookieID == "" {
			cookieID = uuid.NewString()
			SetIdentityCookie(c, cookieID)
		}

		user, created, err := m.userService.GetOrCreateByCookie(c.Request.Context(), cookieID)
		if err != nil {
			m.log.Error("Identity resolution failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{"message": "identity resolution failed", "code": "identity_failed"},
			})
			return
		}
		if created {
			m.log.Debug("Minted identity for new cookie", "user_id", user.ID.String())
		}

		rd := &requestdata.RequestData{UserID: user.ID, CookieID: cookieID}
		c.Request = c.Request.WithContext(requestdata.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}
