package leave

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"leaveflow/internal/rbac"
)

func mintToken(t *testing.T, secret, companyID, employeeID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"employee_id": employeeID,
		"company_id":  companyID,
		"role":        role,
		"exp":         time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

// Runs the registered chain end to end: the idempotency cache key must be
// built from the employee id carried by the validated token, which only
// holds when idempotency runs after authentication.
func TestRegisterRoutes_IdempotencyScopedByAuthenticatedEmployee(t *testing.T) {
	t.Setenv("JWT_SECRET", "routes-test-secret")
	gin.SetMode(gin.TestMode)

	companyID := uuid.NewString()
	employeeID := uuid.NewString()

	svc := &fakeService{
		submitFn: func(ctx context.Context, gotCompany, gotActor string, req SubmitLeaveRequest) (LeaveResponse, error) {
			assert.Equal(t, companyID, gotCompany)
			assert.Equal(t, employeeID, gotActor)
			return LeaveResponse{RequestNumber: "LV-0001", Status: StatusPendingManager}, nil
		},
	}

	rbacService, err := rbac.NewService()
	assert.NoError(t, err)

	rdb, rmock := redismock.NewClientMock()

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), NewHandler(svc), rbacService, rdb)

	cacheKey := "idemp:/api/v1/leaves:" + employeeID + ":submit-1"
	rmock.ExpectGet(cacheKey).RedisNil()
	rmock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(true)
	rmock.Regexp().ExpectSet(cacheKey, `.*`, 24*time.Hour).SetVal("OK")
	rmock.ExpectDel(cacheKey + ":lock").SetVal(1)

	body := `{"leave_type":"CASUAL","start_date":"2025-06-02","end_date":"2025-06-06","reason":"family trip","selected_annual_leave":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/leaves", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+mintToken(t, "routes-test-secret", companyID, employeeID, "EMPLOYEE"))
	req.Header.Set("Idempotency-Key", "submit-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NoError(t, rmock.ExpectationsWereMet())
}
