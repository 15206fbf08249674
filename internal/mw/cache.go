package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CacheHeader tells clients whether a response was served from memory.
const CacheHeader = "X-Cache"

// CacheUntilKey is the context key under which a handler may store a
// time.Time after which its response must no longer be served from cache.
const CacheUntilKey = "mw.cache_until"

// Cache is a middleware for in-memory caching of successful GET responses,
// keyed by request URI.
func Cache(store *cache.Cache, duration time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if resp, found := store.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set(CacheHeader, "HIT")
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw
		c.Writer.Header().Set(CacheHeader, "MISS")

		c.Next()

		ttl := duration
		if until, ok := c.Get(CacheUntilKey); ok {
			if t, ok := until.(time.Time); ok {
				ttl = min(ttl, time.Until(t))
			}
		}
		if blw.Status() >= 200 && blw.Status() < 300 && ttl > 0 {
			headers := blw.Header().Clone()
			headers.Del(CacheHeader)
			store.Set(key, cachedResponse{
				status:  blw.Status(),
				headers: headers,
				body:    bytes.Clone(blw.body.Bytes()),
			}, ttl)
		}
	}
}
