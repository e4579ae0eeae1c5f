package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"procintel/internal/logging"
	"procintel/internal/store"
	"procintel/internal/types"
)

// CompleteRequest is the body of POST /api/processes/:key/complete.
type CompleteRequest struct {
	// ExitDate is YYYY-MM-DD in local time. Empty means today.
	ExitDate string `json:"exit_date"`
}

// StatusRequest is the body of PUT /api/biddings/:key/status.
type StatusRequest struct {
	Status string `json:"status"`
}

const isoDate = "2006-01-02"

// editable aborts with 404 when record editing is not configured.
func (s *Server) editable(c *gin.Context) bool {
	if s.records == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record editing disabled"})
		return false
	}
	return true
}

// fail maps store and validation errors onto status codes.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrDataQuality):
		status = http.StatusUnprocessableEntity
	default:
		logging.Get(logging.CategoryServer).Error("record edit [%s]: %v", GetRequestID(c), err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "request_id": GetRequestID(c)})
}

// putProcess creates or replaces a process. An existing record found by ID or
// SEI keeps its ID; otherwise the key becomes the ID.
func (s *Server) putProcess(c *gin.Context) {
	if !s.editable(c) {
		return
	}
	var p types.ProcessRecord
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "request_id": GetRequestID(c)})
		return
	}
	ctx := c.Request.Context()
	key := c.Param("key")

	existing, err := s.records.GetProcess(ctx, key)
	switch {
	case err == nil:
		p.ID = existing.ID
	case errors.Is(err, store.ErrNotFound):
		p.ID = key
	default:
		fail(c, err)
		return
	}
	if p.SEI == "" {
		p.SEI = key
	}
	if err := p.Validate(); err != nil {
		fail(c, err)
		return
	}
	if err := s.records.UpsertProcess(ctx, p); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"process": p})
}

func (s *Server) completeProcess(c *gin.Context) {
	if !s.editable(c) {
		return
	}
	var req CompleteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "request_id": GetRequestID(c)})
			return
		}
	}
	exit := today()
	if req.ExitDate != "" {
		t, err := time.ParseInLocation(isoDate, strings.TrimSpace(req.ExitDate), time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "exit_date must be YYYY-MM-DD", "request_id": GetRequestID(c)})
			return
		}
		exit = t
	}

	p, err := s.records.CompleteByKey(c.Request.Context(), c.Param("key"), exit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"process": p})
}

func (s *Server) deleteProcess(c *gin.Context) {
	if !s.editable(c) {
		return
	}
	ctx := c.Request.Context()
	p, err := s.records.GetProcess(ctx, c.Param("key"))
	if err == nil {
		err = s.records.DeleteProcess(ctx, p.ID)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) putBiddingStatus(c *gin.Context) {
	if !s.editable(c) {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "request_id": GetRequestID(c)})
		return
	}
	b, err := s.records.SetBiddingStatus(c.Request.Context(), c.Param("key"), req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bidding": b})
}

func (s *Server) deleteBidding(c *gin.Context) {
	if !s.editable(c) {
		return
	}
	ctx := c.Request.Context()
	b, err := s.records.GetBidding(ctx, c.Param("key"))
	if err == nil {
		err = s.records.DeleteBidding(ctx, b.ID)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
