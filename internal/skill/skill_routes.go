package skill

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
	skills := r.Group("/skills")
	skills.Use(authMiddleware, middleware.ContextLogger(logger))
	{
		skills.GET("", middleware.RBACAuthorize(rbacService, "skill", "read"), h.GetAll)
		skills.GET("/:id", middleware.RBACAuthorize(rbacService, "skill", "read"), h.GetByID)
		skills.POST("",
			middleware.RateLimitByUser(0.5, 3),
			middleware.RBACAuthorize(rbacService, "skill", "create"),
			h.Create,
		)
	}
}
