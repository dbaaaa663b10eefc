package rbac

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-skillmatrix/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type mockService struct{}

func (m *mockService) LoadPolicy() error { return nil }

func (m *mockService) Enforce(req domain.EnforceRequest) (bool, error) {
	return req.Role == domain.RoleHR && req.Resource == "project" && req.Action == "read", nil
}

func (m *mockService) ListPolicies() ([]domain.PolicyResponse, error) {
	return []domain.PolicyResponse{{Role: domain.RoleHR, Resource: "project", Action: "read"}}, nil
}

func withRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("role", role)
		c.Next()
	}
}

func TestHandler_Enforce(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewHandler(&mockService{})

	send := func(role string, body any) *httptest.ResponseRecorder {
		router := gin.New()
		router.POST("/rbac/enforce", withRole(role), handler.Enforce)
		raw, _ := json.Marshal(body)
		req, _ := http.NewRequest(http.MethodPost, "/rbac/enforce", bytes.NewBuffer(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("allowed for caller role", func(t *testing.T) {
		w := send(domain.RoleHR, map[string]string{"resource": "project", "action": "read"})
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data domain.EnforceResponse `json:"data"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Allowed)
	})

	t.Run("denied for other role", func(t *testing.T) {
		w := send(domain.RoleEmployee, map[string]string{"resource": "project", "action": "read"})
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data domain.EnforceResponse `json:"data"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Data.Allowed)
	})

	t.Run("missing action", func(t *testing.T) {
		w := send(domain.RoleHR, map[string]string{"resource": "project"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_ListPolicies(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/rbac/policies", NewHandler(&mockService{}).ListPolicies)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/rbac/policies", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"resource":"project"`)
}
