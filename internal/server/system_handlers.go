package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Herculano1234/MuseuCom/internal/models"
)

// DashboardResponse holds catalog totals
type DashboardResponse struct {
	TotalUsers     int64 `json:"total_usuarios"`
	TotalMaterials int64 `json:"total_materiais"`
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "museucom-api",
		"version":   s.version,
	})
}

// @Summary Catalog totals
// @Tags dashboard
// @Produce json
// @Success 200 {object} DashboardResponse
// @Router /dashboard [get]
func (s *Server) getDashboard(c *gin.Context) {
	var resp DashboardResponse

	if err := s.db.Model(&models.User{}).Count(&resp.TotalUsers).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if err := s.db.Model(&models.Material{}).Count(&resp.TotalMaterials).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count materials")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
