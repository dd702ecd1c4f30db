package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quranlabs/tadabbur/pkg/events"
	"github.com/quranlabs/tadabbur/pkg/models"
	"github.com/quranlabs/tadabbur/pkg/services"
	"github.com/quranlabs/tadabbur/pkg/session"
)

// keepAliveInterval is how long the SSE stream may sit idle before a
// comment line is sent to hold the connection open.
const keepAliveInterval = 15 * time.Second

// listLimit caps one page of the discoveries listing.
const listLimit = 20

// DiscoveryRequest is the body of the stream and explore endpoints.
type DiscoveryRequest struct {
	Query       string   `json:"query" binding:"required"`
	Disciplines []string `json:"disciplines"`
	Mode        string   `json:"mode"`
}

func (r DiscoveryRequest) validate() error {
	switch models.Mode(r.Mode) {
	case "", models.ModeGuided, models.ModeAutonomous, models.ModeCrossDomain:
		return nil
	}
	return fmt.Errorf("invalid mode: %q", r.Mode)
}

func (r DiscoveryRequest) initialState() models.DiscoveryState {
	return models.DiscoveryState{
		Query:       r.Query,
		Disciplines: r.Disciplines,
		Mode:        models.Mode(r.Mode),
	}
}

// StreamDiscovery launches a session and streams its events as SSE.
// Client disconnect cancels the session; the checkpointer keeps the last
// merged state.
func (s *Server) StreamDiscovery(c *gin.Context) {
	var req DiscoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID := uuid.New().String()
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.sessionTimeout)
	defer cancel()

	ch, err := s.orch.Stream(ctx, sessionID, req.initialState())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrInFlight) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSSE(c.Writer, ev); err != nil {
				slog.Debug("SSE write failed, client likely disconnected",
					"session_id", sessionID, "error", err)
				return
			}
			keepAlive.Reset(keepAliveInterval)
		case <-keepAlive.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			c.Writer.Flush()
		case <-ctx.Done():
			// The engine closes the channel shortly after observing
			// cancellation; flush the remaining frames so the stream
			// still terminates with an error event.
			for ev := range ch {
				if err := writeSSE(c.Writer, ev); err != nil {
					return
				}
			}
			return
		}
	}
}

// writeSSE frames one event. JSON stays UTF-8; Arabic text is never
// ASCII-escaped.
func writeSSE(w gin.ResponseWriter, ev events.Outgoing) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev.Payload); err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	data := bytes.TrimRight(buf.Bytes(), "\n")
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Event, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}

// Explore runs the session to completion and returns the terminal summary
// as one JSON response.
func (s *Server) Explore(c *gin.Context) {
	var req DiscoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID := uuid.New().String()
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.sessionTimeout)
	defer cancel()

	state, err := s.orch.Invoke(ctx, sessionID, req.initialState())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrInFlight) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, events.NewTranslator(sessionID).Complete(state).Payload)
}

// ListDiscoveries returns persisted discoveries, optionally filtered by
// confidence tier. An absent store yields an empty list.
func (s *Server) ListDiscoveries(c *gin.Context) {
	tier := c.Query("tier")
	if tier != "" && !models.ValidTier(models.Tier(tier)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid tier: %q", tier)})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	discoveries, err := s.store.List(ctx, tier, listLimit)
	if err != nil {
		if errors.Is(err, services.ErrUnavailable) {
			discoveries = []models.Discovery{}
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	if discoveries == nil {
		discoveries = []models.Discovery{}
	}

	c.JSON(http.StatusOK, gin.H{
		"discoveries": discoveries,
		"filter":      tier,
	})
}
