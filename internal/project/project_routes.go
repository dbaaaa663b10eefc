package project

import (
	"go-skillmatrix/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	h *Handler,
	rbacService middleware.RBACService,
	authMiddleware gin.HandlerFunc,
	logger *zap.Logger,
) {
	projects := r.Group("/projects")
	projects.Use(authMiddleware, middleware.ContextLogger(logger))
	{
		projects.GET("", middleware.RBACAuthorize(rbacService, "project", "read"), h.List)
		projects.GET("/:id", middleware.RBACAuthorize(rbacService, "project", "read"), h.GetByID)

		projects.POST("",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "project", "create"),
			h.Create,
		)
		projects.PATCH("/:id/status",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "project", "update"),
			h.UpdateStatus,
		)
		projects.POST("/:id/analyze",
			middleware.RateLimitByUser(0.1, 2),
			middleware.RBACAuthorize(rbacService, "project", "analyze"),
			h.Analyze,
		)
		projects.DELETE("/:id",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "project", "delete"),
			h.Delete,
		)
	}
}
