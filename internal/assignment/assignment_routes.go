package assignment

import (
	"go-skillmatrix/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	h *Handler,
	rbacService middleware.RBACService,
	authMiddleware gin.HandlerFunc,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	group := r.Group("")
	group.Use(authMiddleware, middleware.ContextLogger(logger))
	{
		group.POST("/deliverables/:id/request-assignment",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "assignment", "request"),
			middleware.Idempotency(rdb, logger),
			h.CreateRequest,
		)
		group.GET("/assignment-requests/pending",
			middleware.RBACAuthorize(rbacService, "assignment", "review"),
			h.Pending,
		)
		group.PATCH("/assignment-requests/:id/review",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "assignment", "review"),
			h.Review,
		)
		group.GET("/employees/:id/assignments",
			middleware.RBACAuthorize(rbacService, "assignment", "read"),
			h.EmployeeAssignments,
		)
	}
}
