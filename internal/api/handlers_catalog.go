package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"omnicore-dashboard/internal/catalog"
	"omnicore-dashboard/internal/signal"
)

// handleGetBrokers lists supported brokers with their display names.
func (s *Server) handleGetBrokers(c *gin.Context) {
	type brokerInfo struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
	}

	brokers := make([]brokerInfo, 0, len(catalog.Brokers))
	for _, b := range catalog.Brokers {
		brokers = append(brokers, brokerInfo{Name: b, DisplayName: catalog.DisplayName(b)})
	}

	c.JSON(http.StatusOK, gin.H{
		"brokers": brokers,
		"default": catalog.DefaultBroker,
	})
}

// handleGetAssets lists tradable assets in their display groups.
func (s *Server) handleGetAssets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"groups":  catalog.AssetGroups,
		"default": catalog.DefaultAsset,
	})
}

// handleGetDurations lists the duration menu for a broker (query param
// broker, defaulting to the catalog default).
func (s *Server) handleGetDurations(c *gin.Context) {
	broker := c.Query("broker")
	if broker == "" {
		broker = catalog.DefaultBroker
	}

	c.JSON(http.StatusOK, gin.H{
		"broker":    broker,
		"durations": catalog.DurationsFor(broker),
		"default":   catalog.DefaultDuration,
	})
}

// handleGetPersonas lists the consensus personas and research techniques the
// generator accepts.
func (s *Server) handleGetPersonas(c *gin.Context) {
	type techniqueInfo struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}

	techniques := make([]techniqueInfo, 0, len(signal.AllTechniques))
	for _, t := range signal.AllTechniques {
		techniques = append(techniques, techniqueInfo{ID: string(t), Label: t.Label()})
	}

	c.JSON(http.StatusOK, gin.H{
		"personas":    signal.Personas(),
		"techniques":  techniques,
		"model_count": signal.TotalAIModels,
	})
}
