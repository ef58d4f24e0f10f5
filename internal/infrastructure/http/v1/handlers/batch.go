package handlers

import (
	"github.com/gin-gonic/gin"

	"lotledger/internal/domain/batch"
	"lotledger/internal/infrastructure/http/v1/dto"
)

// BatchHandler handles HTTP requests for stock batches.
type BatchHandler struct {
	*BaseHandler
	service *batch.Service
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(base *BaseHandler, service *batch.Service) *BatchHandler {
	return &BatchHandler{BaseHandler: base, service: service}
}

// Create handles POST /batches.
func (h *BatchHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(ctx, b); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromBatch(b))
}

// Get handles GET /batches/:id.
func (h *BatchHandler) Get(c *gin.Context) {
	batchID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(b))
}

// Update handles PUT /batches/:id.
// Stock quantities are not updatable; only metadata changes here.
func (h *BatchHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	batchID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.UpdateBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := h.service.GetByID(ctx, batchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.Apply(b)
	if err := h.service.Update(ctx, b); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(b))
}

// Approve handles POST /batches/:id/approve.
func (h *BatchHandler) Approve(c *gin.Context) {
	batchID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.ApproveBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := h.service.Approve(c.Request.Context(), batchID, req.ApprovedBy)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(b))
}

// Delete handles DELETE /batches/:id.
func (h *BatchHandler) Delete(c *gin.Context) {
	batchID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), batchID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /batches.
func (h *BatchHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter := req.ToFilter()
	if req.OrderBy == "" {
		filter.OrderBy = "code"
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromBatches(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// ListByMaterial handles GET /materials/:id/batches.
func (h *BatchHandler) ListByMaterial(c *gin.Context) {
	materialID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	batches, err := h.service.ListByMaterial(c.Request.Context(), materialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatches(batches))
}

// RegisterRoutes registers batch routes.
func (h *BatchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/approve", h.Approve)
}
