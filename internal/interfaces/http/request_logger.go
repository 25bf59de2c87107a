package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/kiryana-inventory/pkg/logger"
)

const localLogger = "logger"

// RequestLogger registra método, ruta, status y latencia de cada petición.
// El sublogger queda en c.Locals para que los handlers registren los 500 con contexto.
func RequestLogger(l *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqLog := l.With().Str("method", c.Method()).Str("path", c.Path()).Logger()
		c.Locals(localLogger, &reqLog)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		ev := reqLog.Info()
		if status >= fiber.StatusInternalServerError {
			ev = reqLog.Error().Err(err)
		}
		ev.Int("status", status).
			Dur("latency", time.Since(start)).
			Str("user_id", GetUserID(c)).
			Msg("request")
		return err
	}
}

// requestLog sublogger de la petición; el global de zerolog si no hay middleware.
func requestLog(c *fiber.Ctx) *zerolog.Logger {
	if l, ok := c.Locals(localLogger).(*zerolog.Logger); ok {
		return l
	}
	return &log.Logger
}
