package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCache(t *testing.T) {
	calls := 0
	r := gin.New()
	r.Use(Cache(cache.New(time.Minute, time.Minute), time.Minute))
	r.GET("/opt-in/:token", func(c *gin.Context) {
		calls++
		if c.Param("token") == "missing" {
			c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"token": c.Param("token")}})
	})

	for i, expected := range []string{"MISS", "HIT"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/opt-in/abc", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, expected, w.Header().Get(CacheHeader), "request %d", i)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"data":{"token":"abc"}}`, w.Body.String())
	}
	assert.Equal(t, 1, calls)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/opt-in/missing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
	assert.Equal(t, 3, calls, "errors are not cached")
}

func TestCacheUntil(t *testing.T) {
	calls := 0
	until := time.Now().Add(100 * time.Millisecond)
	r := gin.New()
	r.Use(Cache(cache.New(time.Minute, time.Minute), time.Minute))
	r.GET("/opt-in/:token", func(c *gin.Context) {
		calls++
		switch c.Param("token") {
		case "expired":
			c.Set(CacheUntilKey, time.Now().Add(-time.Second))
		case "expiring":
			c.Set(CacheUntilKey, until)
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"token": c.Param("token")}})
	})

	get := func(path string) string {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Header().Get(CacheHeader)
	}

	assert.Equal(t, "MISS", get("/opt-in/expired"))
	assert.Equal(t, "MISS", get("/opt-in/expired"), "already past its deadline")

	assert.Equal(t, "MISS", get("/opt-in/expiring"))
	assert.Equal(t, "HIT", get("/opt-in/expiring"))
	time.Sleep(time.Until(until) + 50*time.Millisecond)
	assert.Equal(t, "MISS", get("/opt-in/expiring"), "entry does not outlive its deadline")
	assert.Equal(t, 4, calls)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 2, time.Minute)
	r := gin.New()
	r.Use(RateLimiter(limiter))
	r.POST("/track", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/track", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/track", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "other clients have their own bucket")
	assert.Equal(t, 2, limiter.Len())
}
