package handlers

import (
	"github.com/gin-gonic/gin"

	"lotledger/internal/domain/production"
	"lotledger/internal/infrastructure/http/v1/dto"
)

// ProductionHandler handles HTTP requests for production orders.
//
// Creating an order commits its batch consumption atomically; deleting
// an order reverses that consumption. There is no separate commit call.
type ProductionHandler struct {
	*BaseHandler
	service *production.Service
}

// NewProductionHandler creates a new production order handler.
func NewProductionHandler(base *BaseHandler, service *production.Service) *ProductionHandler {
	return &ProductionHandler{BaseHandler: base, service: service}
}

// Create handles POST /production-orders.
func (h *ProductionHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.CreateOrder(ctx, o); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromOrder(o))
}

// Get handles GET /production-orders/:id.
func (h *ProductionHandler) Get(c *gin.Context) {
	orderID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	o, err := h.service.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOrder(o))
}

// Update handles PUT /production-orders/:id.
// Only metadata changes; consumption entries stay as committed.
func (h *ProductionHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.UpdateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.GetOrder(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.Apply(o)
	if err := h.service.UpdateOrder(ctx, o); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOrder(o))
}

// Delete handles DELETE /production-orders/:id.
// Reverses the order's consumption and removes the document.
func (h *ProductionHandler) Delete(c *gin.Context) {
	orderID, err := dto.ParseID(c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.DeleteOrder(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /production-orders.
func (h *ProductionHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter := req.ToFilter()
	if req.OrderBy == "" {
		filter.OrderBy = "number"
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromOrders(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// RegisterRoutes registers production order routes.
func (h *ProductionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}
