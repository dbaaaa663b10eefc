package analytics

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
	analytics := r.Group("/analytics")
	analytics.Use(authMiddleware, middleware.ContextLogger(logger), middleware.RateLimitByUser(5, 20))
	{
		analytics.GET("/employees/overview", middleware.RBACAuthorize(rbacService, "analytics", "overview"), h.EmployeesOverview)
		analytics.GET("/employees/:id/skill-progress", middleware.RBACAuthorize(rbacService, "analytics", "progress"), h.SkillProgress)
		analytics.GET("/employees/:id/skills/:skillId/timeline", middleware.RBACAuthorize(rbacService, "analytics", "progress"), h.SkillTimeline)
		analytics.GET("/dashboard-stats", middleware.RBACAuthorize(rbacService, "analytics", "overview"), h.DashboardStats)
	}
}
