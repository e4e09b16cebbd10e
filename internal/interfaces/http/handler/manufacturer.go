package handler

import (
	"github.com/czachandrew/tru-server/internal/application/catalog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ManufacturerHandler handles manufacturer HTTP requests
type ManufacturerHandler struct {
	BaseHandler
	manufacturerService *catalog.ManufacturerService
}

// NewManufacturerHandler creates a new manufacturer handler
func NewManufacturerHandler(manufacturerService *catalog.ManufacturerService) *ManufacturerHandler {
	return &ManufacturerHandler{
		manufacturerService: manufacturerService,
	}
}

// GetOrCreateManufacturerRequest resolves a manufacturer by name
type GetOrCreateManufacturerRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// UpdateManufacturerRequest updates manufacturer display fields
type UpdateManufacturerRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	LogoURL string `json:"logo_url" binding:"omitempty,url,max=500"`
	Website string `json:"website" binding:"omitempty,url,max=500"`
}

// GetOrCreate godoc
// @Summary      Get or create a manufacturer
// @Description  Find a manufacturer by name, creating it when unknown
// @Tags         manufacturers
// @Accept       json
// @Produce      json
// @Param        request body GetOrCreateManufacturerRequest true "Manufacturer name"
// @Success      200 {object} dto.Response{data=catalog.ManufacturerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /manufacturers [post]
func (h *ManufacturerHandler) GetOrCreate(c *gin.Context) {
	var req GetOrCreateManufacturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	manufacturer, err := h.manufacturerService.GetOrCreate(c.Request.Context(), req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, manufacturer)
}

// GetByID godoc
// @Summary      Get a manufacturer
// @Description  Get a manufacturer by ID
// @Tags         manufacturers
// @Produce      json
// @Param        id path string true "Manufacturer ID" format(uuid)
// @Success      200 {object} dto.Response{data=catalog.ManufacturerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /manufacturers/{id} [get]
func (h *ManufacturerHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid manufacturer ID")
		return
	}

	manufacturer, err := h.manufacturerService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, manufacturer)
}

// List godoc
// @Summary      List manufacturers
// @Description  List all manufacturers
// @Tags         manufacturers
// @Produce      json
// @Success      200 {object} dto.Response{data=[]catalog.ManufacturerResponse}
// @Router       /manufacturers [get]
func (h *ManufacturerHandler) List(c *gin.Context) {
	manufacturers, err := h.manufacturerService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, manufacturers)
}

// Update godoc
// @Summary      Update a manufacturer
// @Description  Update a manufacturer's name, logo, or website (staff only)
// @Tags         manufacturers
// @Accept       json
// @Produce      json
// @Param        id path string true "Manufacturer ID" format(uuid)
// @Param        request body UpdateManufacturerRequest true "Fields to update"
// @Success      200 {object} dto.Response{data=catalog.ManufacturerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /manufacturers/{id} [put]
func (h *ManufacturerHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid manufacturer ID")
		return
	}

	var req UpdateManufacturerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	manufacturer, err := h.manufacturerService.Update(c.Request.Context(), id, req.Name, req.LogoURL, req.Website)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, manufacturer)
}
