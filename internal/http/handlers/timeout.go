package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

const storeTimeout = 2 * time.Second

// storeContext bounds one storage call by the request lifetime and storeTimeout.
func storeContext(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), storeTimeout)
}
