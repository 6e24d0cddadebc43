package ratelimit

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"smartcal/internal/response"
	"smartcal/internal/storage"

	"github.com/gin-gonic/gin"
)

var ctx = context.Background()

// DefaultLimit — запросов с одного IP в секунду, если RATE_LIMIT не задан.
const DefaultLimit = 5

func limit() int {
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultLimit
}

// Middleware ограничивает частоту запросов по IP через Redis: INCR по ключу
// секундного окна с EXPIRE. При недоступном Redis запросы пропускаются —
// лимитер не должен ронять API.
func Middleware() gin.HandlerFunc {
	max := limit()
	return func(c *gin.Context) {
		key := "ratelimit:" + c.ClientIP()

		count, err := storage.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			log.Println("Лимитер: ошибка Redis, запрос пропущен:", err)
			c.Next()
			return
		}
		if count == 1 {
			storage.RedisClient.Expire(ctx, key, time.Second)
		}

		if count > int64(max) {
			c.JSON(http.StatusTooManyRequests, response.ErrorResponse{
				Code:    "RATE_LIMIT_EXCEEDED",
				Message: "Rate limit exceeded",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
