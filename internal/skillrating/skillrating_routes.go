package skillrating

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
	ratings := r.Group("/employee-skills")
	ratings.Use(authMiddleware, middleware.ContextLogger(logger))
	{
		ratings.GET("/my-ratings", middleware.RBACAuthorize(rbacService, "rating", "self"), h.MyRatings)
		ratings.GET("/pending", middleware.RBACAuthorize(rbacService, "rating", "review"), h.Pending)

		ratings.POST("",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "rating", "self"),
			h.Submit,
		)
		ratings.PATCH("/:id",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "rating", "self"),
			h.Update,
		)
		ratings.POST("/:id/resubmit",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "rating", "self"),
			h.Resubmit,
		)
		ratings.PATCH("/:id/review",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "rating", "review"),
			h.Review,
		)
	}
}
