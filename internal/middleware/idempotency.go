package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyCacheTTL = 24 * time.Hour
	idempotencyLockTTL  = 30 * time.Second
)

// cachedResponse is what a completed request leaves behind for replays.
type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// bodyRecorder tees the response body so it can be cached after the
// handler runs.
type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency guards POST endpoints against duplicate submissions. Clients
// send an Idempotency-Key header; a replay within the cache window returns
// the cached response, and a concurrent duplicate is rejected while the
// first request still holds the lock.
//
// Keys are scoped by the authenticated employee, so this must run after
// AuthMiddleware on the route chain. Mount it per route, never on a group
// that precedes authentication.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader("Idempotency-Key")
		employeeID := c.GetString("employee_id")

		if idempKey == "" || employeeID == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), employeeID, idempKey)
		lockKey := cacheKey + ":lock"

		val, err := rdb.Get(c.Request.Context(), cacheKey).Result()
		if err == nil {
			var cached cachedResponse
			if json.Unmarshal([]byte(val), &cached) == nil {
				c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
				c.Abort()
				return
			}
		}

		// Short-lived lock so a crashed request cannot wedge the key.
		isNew, _ := rdb.SetNX(c.Request.Context(), lockKey, "locked", idempotencyLockTTL).Result()

		if !isNew {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"code":    "PROCESSING",
				"message": "Your request is still being processed, please wait.",
			})
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec

		c.Next()

		// Only settled outcomes are cached; a failed attempt may be
		// retried with the same key.
		status := rec.Status()
		if status >= http.StatusOK && status < http.StatusMultipleChoices {
			if payload, marshalErr := json.Marshal(cachedResponse{
				Status: status,
				Body:   rec.buf.Bytes(),
			}); marshalErr == nil {
				_ = rdb.Set(c.Request.Context(), cacheKey, payload, idempotencyCacheTTL).Err()
			}
		}
		_ = rdb.Del(c.Request.Context(), lockKey).Err()
	}
}
