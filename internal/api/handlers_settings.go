package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"omnicore-dashboard/internal/catalog"
	"omnicore-dashboard/internal/database"
	"omnicore-dashboard/internal/events"
	"omnicore-dashboard/internal/signal"
)

// handleGetSettings returns the user's dashboard settings, falling back to
// catalog defaults for users who have never saved any.
func (s *Server) handleGetSettings(c *gin.Context) {
	userID, ok := s.getUserIDRequired(c)
	if !ok {
		return
	}

	settings, err := s.store.GetSettings(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "STORAGE_UNAVAILABLE",
			"message": "could not load settings",
		})
		return
	}
	if settings == nil {
		settings = defaultSettings(userID)
	}
	if len(settings.LastTen) > database.MaxLastTen {
		settings.LastTen = settings.LastTen[:database.MaxLastTen]
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// handleSaveSettings applies a partial settings update. Absent fields keep
// their stored values.
func (s *Server) handleSaveSettings(c *gin.Context) {
	userID, ok := s.getUserIDRequired(c)
	if !ok {
		return
	}

	var patch database.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_REQUEST",
			"message": "invalid settings payload: " + err.Error(),
		})
		return
	}

	if msg := validatePatch(&patch); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_SETTINGS",
			"message": msg,
		})
		return
	}

	if err := s.store.SaveSettings(c.Request.Context(), userID, &patch); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "STORAGE_UNAVAILABLE",
			"message": "could not save settings",
		})
		return
	}

	s.eventBus.Publish(events.Event{
		Type:   events.EventSettingsSaved,
		UserID: userID,
	})

	settings, err := s.store.GetSettings(c.Request.Context(), userID)
	if err != nil || settings == nil {
		c.JSON(http.StatusOK, gin.H{"saved": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true, "settings": settings})
}

// validatePatch checks patch fields against the catalog. Returns an empty
// string when the patch is acceptable.
func validatePatch(patch *database.SettingsPatch) string {
	if patch.Broker != nil && !catalog.ValidBroker(*patch.Broker) {
		return "unknown broker: " + *patch.Broker
	}
	if patch.Asset != nil && !catalog.ValidAsset(*patch.Asset) {
		return "unknown asset: " + *patch.Asset
	}
	if patch.Broker != nil && patch.Duration != nil && !catalog.ValidDuration(*patch.Broker, *patch.Duration) {
		return "duration " + *patch.Duration + " is not available for " + *patch.Broker
	}
	if patch.Persona != nil && signal.PersonaByID(*patch.Persona).ID != *patch.Persona {
		return "unknown persona: " + *patch.Persona
	}
	if len(patch.Techniques) > 0 && len(signal.ParseTechniques(patch.Techniques)) == 0 {
		return "no recognized research techniques in selection"
	}
	if patch.ModelCount != nil && (*patch.ModelCount < 1 || *patch.ModelCount > signal.TotalAIModels) {
		return "model count must be between 1 and 108"
	}
	if len(patch.LastTen) > database.MaxLastTen {
		patch.LastTen = patch.LastTen[:database.MaxLastTen]
	}
	return ""
}

func defaultSettings(userID string) *database.UserSettings {
	return &database.UserSettings{
		UserID:              userID,
		Broker:              catalog.DefaultBroker,
		Asset:               catalog.DefaultAsset,
		Duration:            catalog.DefaultDuration,
		LastTen:             []string{},
		ModelCount:          signal.TotalAIModels,
		ConfidenceThreshold: "HIGH",
		Techniques:          []string{string(signal.TechniqueFundamental), string(signal.TechniqueTechnical)},
		Persona:             signal.PersonaStandard,
	}
}
