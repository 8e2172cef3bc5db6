package middleware

import (
	"time"

	"github.com/annel0/overworld/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDKey ключ trace-ID в gin.Context
const TraceIDKey = "trace_id"

// RequestLogger назначает запросу trace-ID (из спана otelgin или новый UUID)
// и пишет строку лога на каждый ответ. Пробы /health пишутся на уровне DEBUG.
type RequestLogger struct {
	logger *logging.Logger
	quiet  map[string]bool
}

func NewRequestLogger(quietRoutes ...string) *RequestLogger {
	rl := &RequestLogger{logger: logging.GetComponentLogger("http"), quiet: make(map[string]bool)}
	for _, r := range quietRoutes {
		rl.quiet[r] = true
	}
	return rl
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := uuid.NewString()
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
			traceID = sc.TraceID().String()
		}
		c.Set(TraceIDKey, traceID)
		c.Header("X-Trace-Id", traceID)

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		log := rl.logger.Info
		if rl.quiet[route] {
			log = rl.logger.Debug
		}
		log("◀ %s %s %d %s trace=%s", c.Request.Method, route, c.Writer.Status(), time.Since(start), traceID)
	}
}
