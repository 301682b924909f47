package leave

import (
	"leaveflow/internal/middleware"
	"leaveflow/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
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

	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	{
		leaves.GET("", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetAll)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetById)
		// Idempotency runs after auth so the replay cache key is scoped
		// to the submitting employee.
		if redisClient != nil {
			leaves.POST(
				"",
				middleware.Idempotency(redisClient),
				middleware.RBACAuthorize(rbacService, "leave", "create"),
				handler.Submit,
			)
		} else {
			leaves.POST("", middleware.RBACAuthorize(rbacService, "leave", "create"), handler.Submit)
		}
		leaves.POST("/:id/manager-decision", middleware.RBACAuthorize(rbacService, "leave", "decide"), handler.ManagerDecision)
		leaves.POST("/:id/hr-approval", middleware.RBACAuthorize(rbacService, "leave", "approve"), handler.HRApproval)
		leaves.POST("/:id/cancel", middleware.RBACAuthorize(rbacService, "leave", "cancel"), handler.Cancel)
	}
}
