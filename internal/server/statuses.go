package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListOfferStatuses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.catalog.List()})
}

// RefreshOfferStatuses reloads the dictionary. The previous snapshot is
// kept when the source fails.
func (s *Server) RefreshOfferStatuses(c *gin.Context) {
	if err := s.catalog.Refresh(c.Request.Context()); err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      s.catalog.List(),
		"loaded_at": s.catalog.LoadedAt(),
	})
}
