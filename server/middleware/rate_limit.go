package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// GinRateLimitMiddleware ограничивает частоту входящих запросов общим
// token-bucket лимитером. Запросы сверх лимита получают 429.
func GinRateLimitMiddleware(perSec, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(perSec), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
