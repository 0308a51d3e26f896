package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ahmad-watoo/ams-api/internal/models"
)

func rbacTestContext(t *testing.T, claims *models.JWTClaims, paramID string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}
	if paramID != "" {
		c.Params = gin.Params{{Key: "id", Value: paramID}}
	}
	return c, rec
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	c, rec := rbacTestContext(t, &models.JWTClaims{UserID: "u1", Role: models.RoleRegistrar}, "")

	RBAC("ADMIN", "REGISTRAR")(c)

	assert.False(t, c.IsAborted())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRBACRejectsOtherRole(t *testing.T) {
	c, rec := rbacTestContext(t, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}, "")

	RBAC("ADMIN", "REGISTRAR")(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRBACAllowsSelfOnMatchingParam(t *testing.T) {
	c, rec := rbacTestContext(t, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}, "u1")

	RBAC("ADMIN", "SELF")(c)

	assert.False(t, c.IsAborted())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRBACRejectsSelfOnOtherParam(t *testing.T) {
	c, rec := rbacTestContext(t, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}, "u2")

	RBAC("ADMIN", "SELF")(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRBACRequiresClaims(t *testing.T) {
	c, rec := rbacTestContext(t, nil, "")

	RBAC("ADMIN")(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
