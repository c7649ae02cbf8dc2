package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

var errNoUser = errors.New("authenticated user required")

// UserResolver supplies the verified user making a request. Credential checks
// happen upstream; handlers trust whatever the resolver returns.
type UserResolver interface {
	ResolveUser(c *gin.Context) (string, error)
	// RequestHeaders lists the headers the resolver reads, so that
	// cross-origin clients are allowed to send them.
	RequestHeaders() []string
}

// HeaderResolver trusts a user id header set by the authenticating gateway
type HeaderResolver struct {
	Header string
}

func (r HeaderResolver) RequestHeaders() []string {
	return []string{r.Header}
}

func (r HeaderResolver) ResolveUser(c *gin.Context) (string, error) {
	id := strings.TrimSpace(c.GetHeader(r.Header))
	if id == "" {
		return "", errNoUser
	}
	return id, nil
}

// RequireUser rejects requests without a resolvable user
func RequireUser(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := resolver.ResolveUser(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
