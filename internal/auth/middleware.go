package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

const actorKey = "actor"

// Authenticate resolves an optional bearer token into an actor. Requests
// without an Authorization header continue as anonymous visitors; a header
// that fails verification is rejected with 401.
func Authenticate(verifier Verifier, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "auth").Logger()

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must be a bearer token"})
			return
		}

		if verifier == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication is not configured"})
			return
		}

		actor, err := verifier.Verify(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("rejected credential")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(actorKey, *actor)
		c.Next()
	}
}

// RequireUser rejects anonymous requests with 401
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ActorFrom(c).Anonymous() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
			return
		}
		c.Next()
	}
}

// ActorFrom returns the authenticated actor, or the anonymous actor
func ActorFrom(c *gin.Context) models.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(models.Actor); ok {
			return actor
		}
	}
	return models.Actor{}
}
