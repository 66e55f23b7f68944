package httputil

import "github.com/gin-gonic/gin"

// IHttpHandler is implemented by each endpoint group. Root is the group's
// path prefix; SetRoutes registers endpoints on the public, private, and
// admin groups (quoting is public, shard lifecycle is admin-only).
type IHttpHandler interface {
	Root() string
	SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup)
}
