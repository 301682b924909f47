package clockin

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"leaveflow/internal/middleware"
	"leaveflow/internal/rbac"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb ...*redis.Client,
) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	requests := r.Group("/clock-in-requests")
	requests.Use(middleware.AuthMiddleware())
	{
		requests.GET("", middleware.RBACAuthorize(rbacService, "clock_in", "read"), handler.GetAll)
		requests.GET("/:id", middleware.RBACAuthorize(rbacService, "clock_in", "read"), handler.GetById)
		if redisClient != nil {
			requests.POST(
				"",
				middleware.Idempotency(redisClient),
				middleware.RBACAuthorize(rbacService, "clock_in", "create"),
				handler.Submit,
			)
		} else {
			requests.POST("", middleware.RBACAuthorize(rbacService, "clock_in", "create"), handler.Submit)
		}
		requests.POST("/:id/manager-decision", middleware.RBACAuthorize(rbacService, "clock_in", "decide"), handler.ManagerDecision)
		requests.POST("/:id/hr-approval", middleware.RBACAuthorize(rbacService, "clock_in", "approve"), handler.HRApproval)
		requests.POST("/:id/cancel", middleware.RBACAuthorize(rbacService, "clock_in", "cancel"), handler.Cancel)
	}
}
