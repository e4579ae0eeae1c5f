package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"procintel/internal/core"
	"procintel/internal/logging"
)

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Query string `json:"query" binding:"required"`
	Think bool   `json:"think,omitempty"`
}

// AskResponse is the answer to a query.
type AskResponse struct {
	RequestID  string   `json:"request_id"`
	Intent     string   `json:"intent"`
	Rule       string   `json:"rule,omitempty"`
	Subject    string   `json:"subject,omitempty"`
	Title      string   `json:"title"`
	Report     string   `json:"report"`
	Thinking   []string `json:"thinking,omitempty"`
	Excluded   []string `json:"excluded,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required", "request_id": GetRequestID(c)})
		return
	}
	s.answer(c, req.Query, req.Think)
}

// summaryQuery routes to the general summary.
const summaryQuery = "resumo geral"

func (s *Server) summary(c *gin.Context) {
	s.answer(c, summaryQuery, false)
}

func (s *Server) answer(c *gin.Context, query string, think bool) {
	ctx := c.Request.Context()
	id := GetRequestID(c)

	snap, err := s.source.LoadSnapshot(ctx)
	if err != nil {
		logging.Get(logging.CategoryServer).Error("load snapshot [%s]: %v", id, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "records unavailable", "request_id": id})
		return
	}

	res, err := s.engine.Answer(ctx, query, snap)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusRequestTimeout
		}
		c.JSON(status, gin.H{"error": err.Error(), "request_id": id})
		return
	}

	if s.history != nil {
		if err := s.history.LogQuery(ctx, query, res.Decision.Intent.String(), res.Decision.Rule); err != nil {
			logging.Get(logging.CategoryServer).Warn("query log [%s]: %v", id, err)
		}
	}

	c.JSON(http.StatusOK, toResponse(id, res, think))
}

func toResponse(id string, res core.Result, think bool) AskResponse {
	out := AskResponse{
		RequestID:  id,
		Intent:     res.Decision.Intent.String(),
		Rule:       res.Decision.Rule,
		Subject:    res.Decision.Subject,
		Title:      res.Report.Title,
		Report:     res.Report.Body,
		DurationMS: res.Duration.Milliseconds(),
	}
	if think {
		out.Thinking = res.Thinking
	}
	for i := range res.Excluded {
		out.Excluded = append(out.Excluded, res.Excluded[i].Error())
	}
	return out
}

func (s *Server) recent(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "query history disabled"})
		return
	}
	n, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	entries, err := s.history.RecentQueries(c.Request.Context(), n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "request_id": GetRequestID(c)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queries": entries})
}
