// Package server exposes a BufferTree over HTTP.
package server

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"FractalDB/betree"
)

// New builds the fiber app serving tree. The caller owns the tree and
// closes it after the app shuts down.
func New(tree *betree.BufferTree, logger *zap.Logger) *fiber.App {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		AppName:               "fractaldb",
		DisableStartupMessage: true,
		BodyLimit:             betree.MaxValLen + 1024,
	})
	SetupRoutes(app, tree, logger.Named("server"))
	return app
}

// Serve listens on addr until the app is shut down.
func Serve(app *fiber.App, addr string, logger *zap.Logger) error {
	logger.Info("listening", zap.String("addr", addr))
	return app.Listen(addr)
}
