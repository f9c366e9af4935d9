package httpkit

import (
	"errors"
	"net/http"
	"strings"

	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess = "access"

	errMissingToken = "missing token"
	errInvalidToken = "invalid token"
)

var errWrongTokenType = errors.New("not an access token")

// AccessClaims are the claims of an access token minted by the external
// identity provider. The subject is the user id.
type AccessClaims struct {
	Type  string   `json:"type"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// ParseAccessToken verifies an HMAC-signed access token and returns the
// caller it names.
func ParseAccessToken(rawToken, secret string) (Identity, error) {
	var claims AccessClaims
	_, err := jwt.ParseWithClaims(rawToken, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Identity{}, err
	}
	if claims.Type != tokenTypeAccess {
		return Identity{}, errWrongTokenType
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, err
	}

	roles := make([]string, 0, len(claims.Roles))
	for _, role := range claims.Roles {
		if role = strings.ToLower(strings.TrimSpace(role)); role != "" {
			roles = append(roles, role)
		}
	}
	return Identity{UserID: userID, Roles: roles}, nil
}

// AuthRequired admits requests carrying a valid bearer access token.
func AuthRequired(cfg config.JWTConfig, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			log.AuthFailure(c.Request.URL.Path, errMissingToken, c.ClientIP())
			abortUnauthorized(c, errMissingToken)
			return
		}

		id, err := ParseAccessToken(rawToken, cfg.GetJWTAccessSecret())
		if err != nil {
			log.AuthFailure(c.Request.URL.Path, err.Error(), c.ClientIP())
			abortUnauthorized(c, errInvalidToken)
			return
		}

		SetIdentity(c, id)
		c.Next()
	}
}

// RequireRole admits callers holding at least one of the given roles.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if ok {
			for _, role := range allowed {
				if id.HasRole(role) {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "forbidden", Code: "FORBIDDEN"})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: message, Code: "UNAUTHORIZED"})
}
