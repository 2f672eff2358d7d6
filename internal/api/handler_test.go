package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", &models.NotFoundError{Entity: "product", ID: 9}, http.StatusNotFound},
		{"forbidden", &models.ForbiddenError{Role: models.RoleStaffWarehouse, Status: models.OrderStatusShipped}, http.StatusForbidden},
		{"insufficient stock", &models.InsufficientStockError{ProductID: 9, Requested: 3, Available: 1}, http.StatusConflict},
		{"conflict", &models.ConflictError{Entity: "order", ID: 9}, http.StatusConflict},
		{"validation", &models.ValidationError{Violations: []models.FieldViolation{{Field: "status", Message: "required"}}}, http.StatusBadRequest},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			writeError(c, tt.err)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func identityRouter() *gin.Engine {
	router := gin.New()
	router.Use(identityMiddleware())
	router.GET("/whoami", identityRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": callerID(c), "role": callerRole(c)})
	})
	router.GET("/admin", identityRequired(), requireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestIdentityRequired(t *testing.T) {
	router := identityRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(headerUserID, "42")
	req.Header.Set(headerRole, models.RoleStaff)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":42`)
	assert.Contains(t, w.Body.String(), models.RoleStaff)
}

func TestRequireRole(t *testing.T) {
	router := identityRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(headerUserID, "42")
	req.Header.Set(headerRole, models.RoleStaff)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(headerUserID, "42")
	req.Header.Set(headerRole, models.RoleAdmin)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDefaultRoleIsCustomer(t *testing.T) {
	router := identityRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(headerUserID, "7")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.RoleCustomer)
}
