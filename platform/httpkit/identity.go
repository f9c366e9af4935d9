package httpkit

import (
	"context"
	"net/http"

	"leadflow_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const contextIdentityKey = "httpkit.identity"

// rolePriority orders roles from most to least privileged.
var rolePriority = []string{"admin", "office", "agent", "installer", "customer"}

// Identity is the caller established by AuthRequired.
type Identity struct {
	UserID uuid.UUID
	Roles  []string
}

func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PrimaryRole returns the most privileged known role, or "" when the caller
// holds none of them.
func (i Identity) PrimaryRole() string {
	for _, role := range rolePriority {
		if i.HasRole(role) {
			return role
		}
	}
	return ""
}

// SetIdentity attaches the caller to the gin context and tags the request
// context so request logs carry the user id.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(contextIdentityKey, id)
	ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, id.UserID.String())
	c.Request = c.Request.WithContext(ctx)
}

func IdentityFrom(c *gin.Context) (Identity, bool) {
	value, ok := c.Get(contextIdentityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := value.(Identity)
	if !ok || id.UserID == uuid.Nil {
		return Identity{}, false
	}
	return id, true
}

// MustGetIdentity returns the caller or aborts with 401.
func MustGetIdentity(c *gin.Context) (Identity, bool) {
	id, ok := IdentityFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: "UNAUTHORIZED"})
		return Identity{}, false
	}
	return id, true
}
