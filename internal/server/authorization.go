package server

import (
	"github.com/gin-gonic/gin"
)

type Actor struct {
	ID   string
	Role string
}

func (s *Server) authorizeAdminAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := adminActorFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), actor.ID, actor.Role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func adminActorFromContext(c *gin.Context) (Actor, bool) {
	id := c.GetString(contextAdminActorKey)
	role := c.GetString(contextAdminRoleKey)
	if id == "" || role == "" {
		return Actor{}, false
	}
	return Actor{ID: id, Role: role}, true
}
