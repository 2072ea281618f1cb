package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const maxConnectionsLimit = 500

// handleHealth handles GET /health
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"ledger":         s.ledger != nil,
	})
}

// handleStats handles GET /api/v1/listener/stats
func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.stats.Stats())
}

// handleConnections handles GET /api/v1/connections?limit=N
func (s *Server) handleConnections(c *gin.Context) {
	if s.ledger == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "Ledger disabled",
			Message: "Start the listener with a ledger path to record connections",
		})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxConnectionsLimit {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid limit",
				Message: fmt.Sprintf("limit must be an integer between 1 and %d", maxConnectionsLimit),
			})
			return
		}
		limit = n
	}

	records, err := s.ledger.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Ledger query failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":       len(records),
		"connections": records,
	})
}

// handleSummary handles GET /api/v1/connections/summary
func (s *Server) handleSummary(c *gin.Context) {
	if s.ledger == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Ledger disabled"})
		return
	}

	counts, err := s.ledger.Counts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Ledger query failed",
			Message: err.Error(),
		})
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	c.JSON(http.StatusOK, gin.H{
		"total":    total,
		"outcomes": counts,
	})
}
