package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/katatrina/roxot-collector/internal/adapter"
	"github.com/katatrina/roxot-collector/internal/validator"
	"github.com/rs/zerolog/log"
)

type openSessionResponse struct {
	SessionID string `json:"session_id"`
	VisitorID string `json:"visitor_id"`
	Options   any    `json:"options"`
}

func (server *Server) openSession(ctx *gin.Context) {
	code := ctx.Param("code")

	var req adapter.EnableRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}
	if req.VisitorID != "" {
		if err := validator.ValidateVisitorID(req.VisitorID); err != nil {
			ctx.JSON(http.StatusBadRequest, errorResponse(err))
			return
		}
	}
	if req.UserAgent == "" {
		req.UserAgent = ctx.Request.UserAgent()
	}

	s, err := server.sessions.Open(ctx.Request.Context(), code, req)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, openSessionResponse{
		SessionID: s.ID,
		VisitorID: s.VisitorID,
		Options:   s.Adapter.Options(),
	})
}

func (server *Server) trackEvent(ctx *gin.Context) {
	s, err := server.sessions.Get(ctx.Param("sessionID"))
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	var ev adapter.Event
	if err = ctx.ShouldBindJSON(&ev); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	if err = s.Adapter.Track(ctx.Request.Context(), ev); err != nil {
		log.Warn().Err(err).Str("session_id", s.ID).Str("event_type", ev.EventType).Msg("failed to track event")
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{"tracked": ev.EventType})
}

func (server *Server) getSessionOptions(ctx *gin.Context) {
	s, err := server.sessions.Get(ctx.Param("sessionID"))
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"session_id": s.ID,
		"options":    s.Adapter.Options(),
	})
}

func (server *Server) closeSession(ctx *gin.Context) {
	if err := server.sessions.Close(ctx.Request.Context(), ctx.Param("sessionID")); err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (server *Server) healthCheck(ctx *gin.Context) {
	resp := gin.H{
		"status":          "ok",
		"active_sessions": server.sessions.Len(),
	}

	if server.taskInspector != nil {
		pending, err := server.taskInspector.PendingDeliveries()
		if err != nil {
			log.Warn().Err(err).Msg("failed to inspect delivery queue")
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		resp["pending_deliveries"] = pending
	}

	ctx.JSON(http.StatusOK, resp)
}
