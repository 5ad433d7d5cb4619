package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/katatrina/roxot-collector/internal/event"
	"github.com/katatrina/roxot-collector/internal/session"
	"github.com/katatrina/roxot-collector/internal/util"
	"github.com/katatrina/roxot-collector/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	router        *gin.Engine
	config        *util.Config
	sessions      *session.Manager
	eventSender   event.EventSender
	gatherer      prometheus.Gatherer
	taskInspector worker.TaskInspector // nil unless deliveries go through the task queue
	shutdown      chan struct{}
}

// NewServer creates a new HTTP server and set up routing.
func NewServer(config *util.Config, sessions *session.Manager, eventSender event.EventSender, gatherer prometheus.Gatherer, taskInspector worker.TaskInspector) *Server {
	server := &Server{
		config:        config,
		sessions:      sessions,
		eventSender:   eventSender,
		gatherer:      gatherer,
		taskInspector: taskInspector,
		shutdown:      make(chan struct{}),
	}

	server.setupRouter()
	return server
}

// setupRouter configures the HTTP server routes.
func (server *Server) setupRouter() *gin.Engine {
	if server.config.IsDevelopment() {
		gin.ForceConsoleColor()
	}
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     server.config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.GET("/health", server.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1", apiTokenMiddleware(server.config.APIToken))

	// Bật analytics adapter cho một lượt xem trang
	v1.POST("/analytics/:code/sessions", server.openSession)

	sessionGroup := v1.Group("/sessions/:sessionID")
	{
		sessionGroup.POST("/events", server.trackEvent)        // Nhận sự kiện đấu giá từ trang
		sessionGroup.GET("/options", server.getSessionOptions) // Cấu hình hiệu lực của phiên
		sessionGroup.DELETE("", server.closeSession)           // Tắt adapter, gửi nốt các bản ghi còn lại
	}

	v1.GET("/publishers/:publisherID/stream", server.streamPublisherEvents) // Endpoint SSE

	server.router = router
	return router
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (server *Server) Start(ctx context.Context, address string) error {
	httpServer := &http.Server{
		Addr:              address,
		Handler:           server.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer.RegisterOnShutdown(func() {
		close(server.shutdown)
	})

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		log.Info().Str("address", address).Msg("HTTP server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info().Msg("shutting down HTTP server")
	return httpServer.Shutdown(shutdownCtx)
}
