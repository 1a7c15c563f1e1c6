package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"omnicore-dashboard/internal/database"
)

// handleListTrades returns the user's trade log, newest first. Supported
// query params: asset, start, end (RFC 3339), limit, offset.
func (s *Server) handleListTrades(c *gin.Context) {
	userID, ok := s.getUserIDRequired(c)
	if !ok {
		return
	}

	filter := database.TradeFilter{
		Asset: c.Query("asset"),
	}

	if v := c.Query("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "INVALID_REQUEST",
				"message": "start must be RFC 3339",
			})
			return
		}
		filter.StartTime = &t
	}
	if v := c.Query("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "INVALID_REQUEST",
				"message": "end must be RFC 3339",
			})
			return
		}
		filter.EndTime = &t
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Offset = n
		}
	}

	trades, err := s.store.ListTrades(c.Request.Context(), userID, filter)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "STORAGE_UNAVAILABLE",
			"message": "could not load trade history",
		})
		return
	}
	if trades == nil {
		trades = []*database.TradeLog{}
	}

	c.JSON(http.StatusOK, gin.H{
		"trades": trades,
		"count":  len(trades),
	})
}

// handleGetTrade returns a single trade by id.
func (s *Server) handleGetTrade(c *gin.Context) {
	userID, ok := s.getUserIDRequired(c)
	if !ok {
		return
	}

	trade, err := s.store.GetTrade(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrTradeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "TRADE_NOT_FOUND",
				"message": "no trade with that id",
			})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "STORAGE_UNAVAILABLE",
			"message": "could not load trade",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trade": trade})
}
