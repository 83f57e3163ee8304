package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
)

// NewRateLimiter returns middleware that limits by client IP.
// rateFormatted: "20-M", "1000-H", "5-S". Empty disables. A nil client selects the in-memory store.
func NewRateLimiter(rateFormatted string, client *redis.Client) (gin.HandlerFunc, error) {
	if rateFormatted == "" {
		return func(c *gin.Context) { c.Next() }, nil
	}
	rate, err := limiter.NewRateFromFormatted(rateFormatted)
	if err != nil {
		return nil, err
	}

	var store limiter.Store
	if client != nil {
		store, err = sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: "pm_ratelimit"})
		if err != nil {
			return nil, err
		}
	} else {
		store = memory.NewStore()
	}

	return mgin.NewMiddleware(
		limiter.New(store, rate),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			apierrors.TooManyRequests(c, "Too many requests, try again later")
		}),
	), nil
}
