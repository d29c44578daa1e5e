package server

import (
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"FractalDB/betree"
)

func SetupRoutes(router fiber.Router, tree *betree.BufferTree, logger *zap.Logger) {
	router.Get("/kv/:key", func(c *fiber.Ctx) error {
		key, err := keyParam(c)
		if err != nil {
			return replyError(c, logger, err)
		}
		value, found, err := tree.Get(key)
		if err != nil {
			return replyError(c, logger, err)
		}
		if !found {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
		return c.Send(value)
	})

	router.Put("/kv/:key", func(c *fiber.Ctx) error {
		key, err := keyParam(c)
		if err != nil {
			return replyError(c, logger, err)
		}
		if err := tree.Put(key, c.Body()); err != nil {
			return replyError(c, logger, err)
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	router.Delete("/kv/:key", func(c *fiber.Ctx) error {
		key, err := keyParam(c)
		if err != nil {
			return replyError(c, logger, err)
		}
		if err := tree.Delete(key); err != nil {
			return replyError(c, logger, err)
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	router.Get("/stats", func(c *fiber.Ctx) error {
		stats := tree.Stats()
		return c.JSON(fiber.Map{
			"id":       tree.ID().String(),
			"stats":    stats,
			"resident": humanize.Bytes(stats.ResidentBytes),
		})
	})

	router.Post("/flush", func(c *fiber.Ctx) error {
		if err := tree.Flush(); err != nil {
			return replyError(c, logger, err)
		}
		return c.JSON(fiber.Map{"status": "flushed"})
	})
}

// errBadKeyEscape marks a key path segment that is not valid %-encoding.
var errBadKeyEscape = errors.New("server: malformed key escape")

func keyParam(c *fiber.Ctx) ([]byte, error) {
	key, err := url.PathUnescape(c.Params("key"))
	if err != nil {
		return nil, errors.Wrapf(errBadKeyEscape, "key: %v", err)
	}
	return []byte(key), nil
}

// replyError maps tree errors to a status code: caller mistakes are 400,
// a closed tree is 503, anything else is logged and reported as 500.
func replyError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.IsAny(err, betree.ErrEmptyKey, betree.ErrKeyTooLarge, betree.ErrValueTooLarge, errBadKeyEscape):
		status = fiber.StatusBadRequest
	case errors.Is(err, betree.ErrClosed):
		status = fiber.StatusServiceUnavailable
	default:
		logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
