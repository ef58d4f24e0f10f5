package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"lotledger/internal/core/apperror"
	"lotledger/internal/domain/material"
	"lotledger/internal/infrastructure/http/v1/dto"
)

// MaterialHandler handles HTTP requests for the material catalog.
type MaterialHandler struct {
	*BaseHandler
	service *material.Service
}

// NewMaterialHandler creates a new material handler.
func NewMaterialHandler(base *BaseHandler, service *material.Service) *MaterialHandler {
	return &MaterialHandler{BaseHandler: base, service: service}
}

// Create handles POST /materials.
func (h *MaterialHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m := req.ToEntity()
	if err := h.service.Create(ctx, m); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromMaterial(m))
}

// Get handles GET /materials/:id.
func (h *MaterialHandler) Get(c *gin.Context) {
	materialID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	m, err := h.service.GetByID(c.Request.Context(), materialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMaterial(m))
}

// Update handles PUT /materials/:id.
func (h *MaterialHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	materialID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.UpdateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := h.service.GetByID(ctx, materialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.Apply(m)
	if err := h.service.Update(ctx, m); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMaterial(m))
}

// Delete handles DELETE /materials/:id.
func (h *MaterialHandler) Delete(c *gin.Context) {
	materialID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), materialID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /materials.
func (h *MaterialHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	result, err := h.service.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromMaterials(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// OpenPackage handles POST /materials/:id/open.
// Marks the package as opened, shortening the effective shelf life.
func (h *MaterialHandler) OpenPackage(c *gin.Context) {
	materialID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	// Body is optional; an empty body opens the package as of today.
	var req dto.OpenPackageRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	m, err := h.service.OpenPackage(c.Request.Context(), materialID, req.OpenedOn)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMaterial(m))
}

// ExpiryState handles GET /materials/:id/expiry.
// Optional asOf query parameter (RFC3339) evaluates the state at that time.
func (h *MaterialHandler) ExpiryState(c *gin.Context) {
	materialID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	var asOf *time.Time
	if raw := c.Query("asOf"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid asOf timestamp").WithDetail("asOf", raw))
			return
		}
		asOf = &parsed
	}

	state, err := h.service.GetExpiryState(c.Request.Context(), materialID, asOf)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromExpiryState(state))
}

// RegisterRoutes registers material routes.
func (h *MaterialHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/open", h.OpenPackage)
	rg.GET("/:id/expiry", h.ExpiryState)
}
