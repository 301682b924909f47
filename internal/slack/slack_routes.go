package slack

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the interaction endpoint. No auth middleware here:
// the request is authenticated by its signature, not by a bearer token.
func RegisterRoutes(r *gin.RouterGroup, gateway *Gateway) {
	r.POST("/slack/interactions", gateway.HandleInteraction)
}
