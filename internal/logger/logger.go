package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init 根据运行环境配置全局 zerolog 输出与日志级别。
func Init(env string) {
	InitWithWriter(env, os.Stderr)
}

// InitWithWriter is Init with an explicit sink, used by tests.
func InitWithWriter(env string, out io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "":
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "test":
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// Middleware 记录每个 HTTP 请求的方法、路径、状态码与耗时。
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency_ms", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("HTTP Request")
	}
}
