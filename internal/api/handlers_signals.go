package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"omnicore-dashboard/internal/database"
	"omnicore-dashboard/internal/signal"
)

// GenerateSignalRequest triggers one pipeline run. Fields left empty fall
// back to the user's stored settings, then to catalog defaults.
type GenerateSignalRequest struct {
	Broker              string   `json:"broker"`
	Asset               string   `json:"asset"`
	Duration            string   `json:"duration"`
	Techniques          []string `json:"techniques"`
	Persona             string   `json:"persona"`
	ModelCount          int      `json:"model_count"`
	ConfidenceThreshold string   `json:"confidence_threshold"`
}

// MarkOutcomeRequest records a trade result.
type MarkOutcomeRequest struct {
	Outcome string `json:"outcome" binding:"required"`
}

// handleGenerateSignal validates the request, claims the pipeline, and
// starts the run in the background. The response carries only the accepted
// run state; progress and the final trade arrive over the WebSocket, or by
// polling the state and trades endpoints. Keeping the handler short stops
// multi-stage runs from outliving the HTTP write timeout.
func (s *Server) handleGenerateSignal(c *gin.Context) {
	userID, ok := s.getUserIDRequired(c)
	if !ok {
		return
	}

	var req GenerateSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_REQUEST",
			"message": "invalid request body: " + err.Error(),
		})
		return
	}

	genReq := signal.GenerateRequest{
		Broker:              req.Broker,
		Asset:               req.Asset,
		Duration:            req.Duration,
		Techniques:          req.Techniques,
		Persona:             req.Persona,
		ModelCount:          req.ModelCount,
		ConfidenceThreshold: req.ConfidenceThreshold,
	}
	s.applyStoredSelections(c, userID, &genReq)
	signal.DefaultSelections(&genReq)

	if err := s.orchestrator.StartAsync(userID, genReq); err != nil {
		switch {
		case errors.Is(err, signal.ErrNoTechniqueSelected):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "NO_TECHNIQUE_SELECTED",
				"message": "Please select at least one data source, Operator.",
			})
		case errors.Is(err, signal.ErrPipelineBusy):
			c.JSON(http.StatusConflict, gin.H{
				"error":   "PIPELINE_BUSY",
				"message": "A signal run is already in progress. Wait for the cooldown to finish.",
			})
		default:
			s.logger.WithField("user_id", userID).WithError(err).Error("Signal generation failed to start")
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "GENERATION_FAILED",
				"message": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"accepted": true,
		"state":    string(s.orchestrator.StateFor(userID)),
	})
}

// applyStoredSelections fills unset request fields from the user's saved
// settings. Storage failures leave the request untouched; catalog defaults
// take over downstream.
func (s *Server) applyStoredSelections(c *gin.Context, userID string, req *signal.GenerateRequest) {
	settings, err := s.store.GetSettings(c.Request.Context(), userID)
	if err != nil || settings == nil {
		return
	}

	if req.Broker == "" {
		req.Broker = settings.Broker
	}
	if req.Asset == "" {
		req.Asset = settings.Asset
	}
	if req.Duration == "" {
		req.Duration = settings.Duration
	}
	if len(req.Techniques) == 0 {
		req.Techniques = settings.Techniques
	}
	if req.Persona == "" {
		req.Persona = settings.Persona
	}
	if req.ModelCount == 0 {
		req.ModelCount = settings.ModelCount
	}
	if req.ConfidenceThreshold == "" {
		req.ConfidenceThreshold = settings.ConfidenceThreshold
	}
}

// handleClearPipeline resets the user's pipeline to idle, cancelling any
// cooldown.
func (s *Server) handleClearPipeline(c *gin.Context) {
	userID, ok := s.getUserIDRequired(c)
	if !ok {
		return
	}

	s.orchestrator.Clear(userID)
	c.JSON(http.StatusOK, gin.H{"state": string(s.orchestrator.StateFor(userID))})
}

// handlePipelineState reports the user's current pipeline state.
func (s *Server) handlePipelineState(c *gin.Context) {
	userID, ok := s.getUserIDRequired(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": string(s.orchestrator.StateFor(userID))})
}

// handleMarkOutcome records the result of a pending trade and attaches the
// post-trade analysis.
func (s *Server) handleMarkOutcome(c *gin.Context) {
	userID, ok := s.getUserIDRequired(c)
	if !ok {
		return
	}

	var req MarkOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_REQUEST",
			"message": "outcome is required",
		})
		return
	}

	outcome := strings.ToUpper(strings.TrimSpace(req.Outcome))
	trade, err := s.orchestrator.MarkOutcome(c.Request.Context(), userID, c.Param("id"), outcome)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrTradeNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "TRADE_NOT_FOUND",
				"message": "no trade with that id",
			})
		case errors.Is(err, database.ErrOutcomeAlreadySet):
			c.JSON(http.StatusConflict, gin.H{
				"error":   "OUTCOME_ALREADY_SET",
				"message": "this trade's outcome has already been recorded",
			})
		case errors.Is(err, database.ErrStorageUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "STORAGE_UNAVAILABLE",
				"message": "could not save the outcome, please retry",
			})
		default:
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "INVALID_OUTCOME",
				"message": err.Error(),
			})
		}
		return
	}

	s.notifier.OutcomeRecorded(trade)
	c.JSON(http.StatusOK, gin.H{"trade": trade})
}
