package recommendation

import (
	"net/http"
	"strconv"

	recommendationerrors "go-skillmatrix/internal/recommendation/errors"
	"go-skillmatrix/internal/shared/apperror"
	"go-skillmatrix/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	service     Service
	defaultTopK int
	logger      *zap.Logger
}

// NewHandler falls back to DefaultTopK when defaultTopK is out of range.
func NewHandler(service Service, defaultTopK int, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("recommendation.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("recommendation.handler")
	}
	if !ValidTopK(defaultTopK) {
		defaultTopK = DefaultTopK
	}
	return &Handler{service: service, defaultTopK: defaultTopK, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("recommendation request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// topK reads ?topK=N.
func (h *Handler) topK(c *gin.Context) (int, error) {
	raw := c.Query("topK")
	if raw == "" {
		return h.defaultTopK, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || !ValidTopK(n) {
		return 0, recommendationerrors.ErrInvalidTopK
	}
	return n, nil
}

func (h *Handler) Deliverable(c *gin.Context) {
	k, err := h.topK(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := h.service.GetRecommendedEmployees(c.Request.Context(), c.Param("id"), k)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) EmployeeAnalysis(c *gin.Context) {
	resp, err := h.service.GetEmployeeSkillAnalysis(c.Request.Context(), c.Param("id"), c.Param("employeeId"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Project(c *gin.Context) {
	k, err := h.topK(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := h.service.GetProjectRecommendations(c.Request.Context(), c.Param("id"), k)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ExportProject(c *gin.Context) {
	k, err := h.topK(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	file, err := h.service.ExportProjectRecommendations(c.Request.Context(), c.Param("id"), k)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, file.Data)
}
