package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const defaultRequestTimeout = 60 * time.Second

// RequestContext bounds every API request by the server lifecycle and the
// request timeout, so upstream calls stop once either ends.
func (handler *Handler) RequestContext(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(handler.baseContext, handler.requestTimeout)
	defer cancel()

	c.SetUserContext(ctx)
	return c.Next()
}
