package middleware

import (
	"cmp"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/app-context/internal/app/appctx"
	"github.com/jsamuelsen/app-context/internal/platform/config"
)

const (
	// ContextKeyClaims is the gin context key of the extracted claims.
	ContextKeyClaims = "claims"

	defaultSubjectHeader = "X-User-ID"
	defaultRolesHeader   = "X-User-Roles"
	defaultScopesHeader  = "X-User-Scopes"
)

// Claims are the user claims forwarded by the gateway, which has already
// validated the token.
type Claims struct {
	Subject string
	Roles   []string
	Scopes  []string
}

// HasRole reports whether the user has role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasScope reports whether the user was granted scope.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// ExtractClaims reads claims from the configured headers. Roles are comma
// separated, scopes space separated as in OAuth2.
func ExtractClaims(c *gin.Context, cfg *config.AuthConfig) *Claims {
	subjectHeader := defaultSubjectHeader
	rolesHeader := defaultRolesHeader
	scopesHeader := defaultScopesHeader

	if cfg != nil {
		subjectHeader = cmp.Or(cfg.SubjectHeader, subjectHeader)
		rolesHeader = cmp.Or(cfg.RolesHeader, rolesHeader)
		scopesHeader = cmp.Or(cfg.ScopesHeader, scopesHeader)
	}

	claims := &Claims{Subject: strings.TrimSpace(c.GetHeader(subjectHeader))}

	if roles := c.GetHeader(rolesHeader); roles != "" {
		claims.Roles = parseCommaSeparated(roles)
	}

	if scopes := c.GetHeader(scopesHeader); scopes != "" {
		claims.Scopes = strings.Fields(scopes)
	}

	return claims
}

// GetClaims returns the claims stored by Actor, or nil.
func GetClaims(c *gin.Context) *Claims {
	if v, ok := c.Get(ContextKeyClaims); ok {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}

	return nil
}

// Actor extracts the caller's claims and attaches them to the request
// context as the scope's actor. Anonymous requests pass through; the user
// provider simply does not run for them.
func Actor(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ExtractClaims(c, cfg)
		c.Set(ContextKeyClaims, claims)

		if claims.Subject != "" {
			ctx := appctx.WithActor(c.Request.Context(), &appctx.Actor{
				Subject: claims.Subject,
				Roles:   claims.Roles,
				Scopes:  claims.Scopes,
			})
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}

func parseCommaSeparated(s string) []string {
	parts := strings.Split(s, ",")

	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
