package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/genlab/backend/internal/domain/shared"
	"github.com/genlab/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the client-chosen key of a retryable POST
const IdempotencyKeyHeader = "Idempotency-Key"

// MaxIdempotencyKeyLength bounds the header so keys stay cheap to store
const MaxIdempotencyKeyLength = 128

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Store  shared.IdempotencyStore
	TTL    time.Duration
	Logger *zap.Logger
}

// Idempotency rejects a replayed Idempotency-Key with 409. The key is scoped
// to the caller and the route, claimed before the handler runs, and released
// again when the handler fails so the client can retry the same key.
// Requests without the header pass through. If the store cannot be reached
// the request fails rather than risk applying a withdrawal twice.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		requestID := GetRequestID(c)
		if len(key) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(
				dto.ErrCodeBadRequest, "Idempotency-Key is too long", requestID))
			return
		}

		scoped := scopedIdempotencyKey(c, key)
		ctx := c.Request.Context()

		claimed, err := cfg.Store.MarkProcessed(ctx, scoped, cfg.TTL)
		if err != nil {
			log.Error("Idempotency store unavailable", zap.Error(err))
			status, resp := dto.FromError(err, requestID)
			c.AbortWithStatusJSON(status, resp)
			return
		}
		if !claimed {
			log.Info("Duplicate request rejected", zap.String("idempotency_key", key))
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponse(
				dto.ErrCodeDuplicateRequest,
				"A request with this Idempotency-Key was already processed",
				requestID,
			))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := cfg.Store.Release(releaseCtx, scoped); err != nil {
				log.Warn("Failed to release idempotency key", zap.String("idempotency_key", key), zap.Error(err))
			}
		}
	}
}

// scopedIdempotencyKey keeps two users, or two endpoints, from colliding on
// the same client key
func scopedIdempotencyKey(c *gin.Context, key string) string {
	owner := GetJWTUserID(c)
	if owner == "" {
		owner = "anonymous"
	}
	return owner + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
}
