package middleware

import (
	"time"

	"github.com/annel0/codecity/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// RequestLogger снабжает каждый запрос trace-ID и пишет одну строку
// по завершении. Опрос кадра и ввод камеры идут с частотой тика и на
// уровне INFO превращают лог в шум, поэтому такие маршруты пишутся
// на DEBUG; ошибки (5xx) всегда поднимаются до WARN.
type RequestLogger struct {
	quiet map[string]bool
}

func NewRequestLogger() *RequestLogger {
	return &RequestLogger{
		quiet: map[string]bool{
			"/api/camera":       true,
			"/api/camera/input": true,
			"/api/pick":         true,
			"/health":           true,
			"/metrics":          true,
		},
	}
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// trace-id берём из активного спана, иначе генерируем свой,
		// чтобы строку лога можно было связать с ответом клиенту.
		var traceID string
		if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.IsValid() {
			traceID = sc.TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set("trace_id", traceID)

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		line := "[HTTP] %s %s %d %s ip=%s trace=%s"
		args := []interface{}{c.Request.Method, route, status, time.Since(start), c.ClientIP(), traceID}

		switch {
		case status >= 500:
			logging.Warn(line, args...)
		case rl.quiet[route]:
			logging.Debug(line, args...)
		default:
			logging.Info(line, args...)
		}
	}
}
