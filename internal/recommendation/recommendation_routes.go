package recommendation

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
	deliverables := r.Group("/deliverables/:id")
	deliverables.Use(authMiddleware, middleware.ContextLogger(logger))
	{
		deliverables.GET("/recommendations",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "recommendation", "read"),
			h.Deliverable,
		)
		deliverables.GET("/employees/:employeeId/analysis",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "recommendation", "read"),
			h.EmployeeAnalysis,
		)
	}

	projects := r.Group("/projects/:id/recommendations")
	projects.Use(authMiddleware, middleware.ContextLogger(logger))
	{
		projects.GET("",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "recommendation", "read"),
			h.Project,
		)
		projects.GET("/export",
			middleware.RateLimitByUser(0.2, 2),
			middleware.RBACAuthorize(rbacService, "recommendation", "export"),
			h.ExportProject,
		)
	}
}
