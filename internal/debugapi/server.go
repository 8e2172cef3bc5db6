package debugapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/annel0/overworld/internal/auth"
	"github.com/annel0/overworld/internal/logging"
	"github.com/annel0/overworld/internal/middleware"
	"github.com/annel0/overworld/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// StatusSource источник снимков состояния симуляции
type StatusSource interface {
	Status() session.Status
}

// Config параметры отладочного сервера
type Config struct {
	Port       int
	Source     StatusSource
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	// StaleAfter - через сколько без новых тиков /health сообщает о зависании
	StaleAfter time.Duration
	// Signer - если задан, /level требует токен оператора
	Signer *auth.Signer
}

// Server отладочный HTTP сервер только для чтения: здоровье, метрики и
// снимок текущего уровня
type Server struct {
	router *gin.Engine
	http   *http.Server
	source StatusSource
	stale  time.Duration
	logger *logging.Logger
}

// NewServer создаёт сервер и настраивает маршруты
func NewServer(cfg Config) *Server {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 5 * time.Second
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("overworld_debug"))
	router.Use(middleware.NewRequestLogger("/health").Handler())

	promMw := middleware.NewPrometheusMiddleware("debug_api", cfg.Registerer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, cfg.Gatherer)

	s := &Server{
		router: router,
		source: cfg.Source,
		stale:  cfg.StaleAfter,
		logger: logging.GetComponentLogger("debugapi"),
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	router.GET("/health", s.handleHealth)
	if cfg.Signer != nil {
		router.GET("/level", middleware.JWTAuth(cfg.Signer), s.handleLevel)
	} else {
		router.GET("/level", s.handleLevel)
	}
	return s
}

// Handler возвращает http.Handler сервера (используется в тестах)
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start запускает HTTP сервер в отдельной горутине
func (s *Server) Start() {
	go func() {
		s.logger.Info("🔍 Debug API доступен по адресу %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Ошибка debug HTTP сервера: %v", err)
		}
	}()
}

// Shutdown останавливает сервер
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	st := s.source.Status()
	age := time.Since(st.UpdatedAt)

	if st.UpdatedAt.IsZero() || age > s.stale {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "stale",
			"tick":    st.Tick,
			"lag_sec": age.Seconds(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"session_id": st.SessionID,
		"tick":       st.Tick,
		"trace_id":   c.GetString(middleware.TraceIDKey),
	})
}

func (s *Server) handleLevel(c *gin.Context) {
	c.JSON(http.StatusOK, s.source.Status())
}
