package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newIdempotencyRouter(rdb *redis.Client, handlerCalls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// Stands in for AuthMiddleware, which runs before Idempotency on the
	// real route chain.
	identity := func(c *gin.Context) {
		if id := c.GetHeader("X-Employee-ID"); id != "" {
			c.Set("employee_id", id)
		}
		c.Next()
	}

	r.POST("/api/v1/leaves", identity, Idempotency(rdb), func(c *gin.Context) {
		*handlerCalls++
		c.JSON(http.StatusCreated, gin.H{"request_number": "LV-0001"})
	})
	return r
}

func postLeaves(r *gin.Engine, employeeID, idempKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/leaves", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if employeeID != "" {
		req.Header.Set("X-Employee-ID", employeeID)
	}
	if idempKey != "" {
		req.Header.Set("Idempotency-Key", idempKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func expectFirstPass(mock redismock.ClientMock, cacheKey string) {
	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(cacheKey+":lock", "locked", idempotencyLockTTL).SetVal(true)
	mock.Regexp().ExpectSet(cacheKey, `.*`, idempotencyCacheTTL).SetVal("OK")
	mock.ExpectDel(cacheKey + ":lock").SetVal(1)
}

func TestIdempotency(t *testing.T) {
	t.Run("cache key is scoped by employee", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		calls := 0
		r := newIdempotencyRouter(rdb, &calls)

		// Two employees reuse the same client-chosen key; each gets an
		// independent cache entry.
		expectFirstPass(mock, "idemp:/api/v1/leaves:emp-a:submit-1")
		expectFirstPass(mock, "idemp:/api/v1/leaves:emp-b:submit-1")

		assert.Equal(t, http.StatusCreated, postLeaves(r, "emp-a", "submit-1").Code)
		assert.Equal(t, http.StatusCreated, postLeaves(r, "emp-b", "submit-1").Code)
		assert.Equal(t, 2, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("replay is served from cache without reaching the handler", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		calls := 0
		r := newIdempotencyRouter(rdb, &calls)

		mock.ExpectGet("idemp:/api/v1/leaves:emp-a:submit-1").
			SetVal(`{"status":201,"body":{"request_number":"LV-0001"}}`)

		w := postLeaves(r, "emp-a", "submit-1")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"request_number":"LV-0001"}`, w.Body.String())
		assert.Equal(t, 0, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("in-flight duplicate is rejected", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		calls := 0
		r := newIdempotencyRouter(rdb, &calls)

		cacheKey := "idemp:/api/v1/leaves:emp-a:submit-1"
		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(cacheKey+":lock", "locked", idempotencyLockTTL).SetVal(false)

		w := postLeaves(r, "emp-a", "submit-1")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "PROCESSING")
		assert.Equal(t, 0, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no key passes straight through", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		calls := 0
		r := newIdempotencyRouter(rdb, &calls)

		assert.Equal(t, http.StatusCreated, postLeaves(r, "emp-a", "").Code)
		assert.Equal(t, 1, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no authenticated identity passes straight through", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		calls := 0
		r := newIdempotencyRouter(rdb, &calls)

		// Without an employee in the context there is no per-user key to
		// build, so the middleware must not touch redis at all.
		assert.Equal(t, http.StatusCreated, postLeaves(r, "", "submit-1").Code)
		assert.Equal(t, 1, calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
