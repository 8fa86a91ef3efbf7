package server

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/storefront/internal/observability/context"
)

const (
	HeaderAPIKey          = "X-API-Key"
	contextAdminActorKey  = "admin_actor"
	contextAdminRoleKey   = "admin_role"
	adminActorPrefix      = "apikey:"
	adminActorFingerprint = 12
)

// AdminKeyRequired authenticates operators with a static API key from ADMIN_API_KEYS.
// The key decides the role; the actor id is a fingerprint so the secret never reaches logs or policies.
func (s *Server) AdminKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := adminKeyFromRequest(c)
		if key == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		role, ok := s.lookupAdminKey(key)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actor := adminActorID(key)
		c.Set(contextAdminActorKey, actor)
		c.Set(contextAdminRoleKey, role)
		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), actorKindAdmin, actor))
		c.Next()
	}
}

func adminKeyFromRequest(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader(HeaderAPIKey)); key != "" {
		return key
	}

	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// lookupAdminKey compares against every configured key so timing does not reveal a prefix match.
func (s *Server) lookupAdminKey(key string) (string, bool) {
	var (
		role  string
		found bool
	)
	for candidate, candidateRole := range s.cfg.Admin.APIKeys {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(key)) == 1 {
			role = candidateRole
			found = true
		}
	}
	return role, found
}

func adminActorID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return adminActorPrefix + hex.EncodeToString(sum[:])[:adminActorFingerprint]
}
