package handler

import (
	"net/http"

	"likesio/internal/repository"

	"github.com/gin-gonic/gin"
)

type ServiceHandler struct {
	serviceRepo *repository.ServiceRepository
}

func NewServiceHandler(serviceRepo *repository.ServiceRepository) *ServiceHandler {
	return &ServiceHandler{serviceRepo: serviceRepo}
}

// List handles GET /services — the public storefront catalogue.
func (h *ServiceHandler) List(c *gin.Context) {
	platform := c.Query("platform")
	serviceType := c.Query("type")
	list, err := h.serviceRepo.ListActive(platform, serviceType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list services"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}
