package deliverable

import (
	"go-skillmatrix/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterRoutes mounts the deliverable and skill-weight endpoints. Gin
// allows one wildcard name per segment, so :id is the project id under
// /projects and the deliverable id under /deliverables.
func RegisterRoutes(
	r *gin.RouterGroup,
	h *Handler,
	rbacService middleware.RBACService,
	authMiddleware gin.HandlerFunc,
	logger *zap.Logger,
) {
	projects := r.Group("/projects/:id/deliverables")
	projects.Use(authMiddleware, middleware.ContextLogger(logger))
	{
		projects.GET("", middleware.RBACAuthorize(rbacService, "deliverable", "read"), h.ListByProject)
		projects.POST("",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "deliverable", "create"),
			h.Create,
		)
	}

	deliverables := r.Group("/deliverables/:id")
	deliverables.Use(authMiddleware, middleware.ContextLogger(logger))
	{
		deliverables.GET("", middleware.RBACAuthorize(rbacService, "deliverable", "read"), h.GetByID)
		deliverables.PATCH("",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "deliverable", "update"),
			h.Update,
		)
		deliverables.DELETE("",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "deliverable", "delete"),
			h.Delete,
		)

		deliverables.GET("/skills", middleware.RBACAuthorize(rbacService, "deliverable", "read"), h.ListSkills)
		deliverables.POST("/skills",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "deliverable", "update"),
			h.AddSkill,
		)
		deliverables.PATCH("/skills/:skillId",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "deliverable", "update"),
			h.UpdateSkillWeight,
		)
		deliverables.DELETE("/skills/:skillId",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "deliverable", "update"),
			h.RemoveSkill,
		)
	}
}
