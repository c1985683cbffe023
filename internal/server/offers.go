package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	offerdomain "github.com/smallbiznis/offerdesk/internal/offer/domain"
	"github.com/smallbiznis/offerdesk/pkg/db/pagination"
)

func (s *Server) CreateOffer(c *gin.Context) {
	var req offerdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.offerSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListOffers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status   string `form:"status"`
		ClientID string `form:"client_id"`
		Ref      string `form:"ref"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if _, err := parseOptionalSnowflakeID(query.ClientID); err != nil {
		AbortWithError(c, newValidationError("client_id", "invalid_client_id", "invalid client_id"))
		return
	}

	resp, err := s.offerSvc.List(c.Request.Context(), offerdomain.ListRequest{
		Pagination: query.Pagination,
		Status:     strings.TrimSpace(query.Status),
		ClientID:   strings.TrimSpace(query.ClientID),
		Ref:        strings.TrimSpace(query.Ref),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetOfferByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	resp, err := s.offerSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateOffer(c *gin.Context) {
	var req offerdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.offerSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ChangeOfferStatus(c *gin.Context) {
	var req offerdomain.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.offerSvc.ChangeStatus(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
