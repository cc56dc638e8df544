package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit limits requests per client ip using an in-memory store.
// rate uses the "<limit>-<period>" format, e.g. "20-M".
func RateLimit(rate string) (gin.HandlerFunc, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	return mgin.NewMiddleware(limiter.New(memory.NewStore(), r)), nil
}
