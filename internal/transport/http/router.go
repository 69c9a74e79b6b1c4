package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openbid/auction-platform/internal/config"
)

// NewRouter builds a gin engine with the shared middleware stack; each
// binary passes its own handler registration.
func NewRouter(rl config.RateLimitConfig, log *zap.SugaredLogger, register func(*gin.Engine)) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware(log))
	if rl.RPS > 0 {
		r.Use(RateLimitMiddleware(rl.RPS, rl.Burst))
	}
	register(r)
	return r
}
