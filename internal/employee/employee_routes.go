package employee

import (
	"leaveflow/internal/middleware"
	"leaveflow/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	employees := r.Group("/employees")
	employees.Use(middleware.AuthMiddleware())
	{
		employees.GET("", middleware.RBACAuthorize(rbacService, "employee", "read"), handler.GetAll)
		employees.GET("/:id", middleware.RBACAuthorize(rbacService, "employee", "read"), handler.GetById)
		employees.GET("/:id/balance", middleware.RBACAuthorize(rbacService, "employee", "read"), handler.GetBalance)
		employees.POST("/:id/balance", middleware.RBACAuthorize(rbacService, "employee", "write"), handler.AdjustBalance)
		employees.PUT("/:id/role", middleware.RBACAuthorize(rbacService, "employee", "write"), handler.SetRole)
		employees.PUT("/:id/slack", middleware.RBACAuthorize(rbacService, "employee", "read"), handler.LinkSlack)
	}
}
