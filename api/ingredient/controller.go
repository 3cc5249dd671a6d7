/*
Package ingredient exposes the inventory use cases over HTTP.

Binding and query errors answer 400 through response.HandleError; everything
the service returns goes through response.HandleAppError, which maps the
domain error kind to its status.
*/
package ingredient

import (
	"github.com/gin-gonic/gin"

	"pantry/api/ctxutil"
	"pantry/api/response"
	ingredientapp "pantry/application/ingredient"
	"pantry/pkg/sanitize"
)

type Controller struct {
	service *ingredientapp.ApplicationService
}

func NewController(service *ingredientapp.ApplicationService) *Controller {
	return &Controller{service: service}
}

// RegisterRoutes expects router to already require a user.
func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/ingredients")
	{
		g.POST("", c.Create)
		g.GET("", c.List)
		g.GET("/:id", c.Get)
		g.PUT("/:id", c.Update)
		g.PUT("/:id/price", c.UpdatePrice)
		g.PUT("/:id/expiry", c.UpdateExpiry)
		g.POST("/:id/consume", c.Consume)
		g.DELETE("/:id", c.Delete)
	}
}

// listQuery binds the GET /ingredients filters.
type listQuery struct {
	CategoryID         string `form:"category_id"`
	StorageType        string `form:"storage_type"`
	Expired            bool   `form:"expired"`
	ExpiringWithinDays *int   `form:"expiring_within_days"`
	LowStock           bool   `form:"low_stock"`
	OutOfStock         bool   `form:"out_of_stock"`
}

// Create POST /api/v1/ingredients
func (c *Controller) Create(ctx *gin.Context) {
	var req ingredientapp.CreateIngredientRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters")
		return
	}
	req.Memo = sanitize.TextPtr(req.Memo)

	created, err := c.service.CreateIngredient(ctxutil.Context(ctx), ctxutil.UserID(ctx), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleCreated(ctx, created, "ingredient created")
}

// List GET /api/v1/ingredients
func (c *Controller) List(ctx *gin.Context) {
	var q listQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.HandleError(ctx, err, "invalid query parameters")
		return
	}

	items, err := c.service.ListIngredients(ctxutil.Context(ctx), ctxutil.UserID(ctx), ingredientapp.ListQuery{
		CategoryID:         q.CategoryID,
		StorageType:        q.StorageType,
		Expired:            q.Expired,
		ExpiringWithinDays: q.ExpiringWithinDays,
		LowStock:           q.LowStock,
		OutOfStock:         q.OutOfStock,
	})
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleList(ctx, items, "ingredients retrieved")
}

// Get GET /api/v1/ingredients/:id
func (c *Controller) Get(ctx *gin.Context) {
	item, err := c.service.GetIngredient(ctxutil.Context(ctx), ctxutil.UserID(ctx), ctx.Param("id"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, item, "ingredient retrieved")
}

// Update PUT /api/v1/ingredients/:id
func (c *Controller) Update(ctx *gin.Context) {
	var req ingredientapp.UpdateIngredientRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters")
		return
	}
	req.Memo = sanitize.TextPtr(req.Memo)

	item, err := c.service.UpdateIngredient(ctxutil.Context(ctx), ctxutil.UserID(ctx), ctx.Param("id"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, item, "ingredient updated")
}

// UpdatePrice PUT /api/v1/ingredients/:id/price
func (c *Controller) UpdatePrice(ctx *gin.Context) {
	var req ingredientapp.UpdatePriceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters")
		return
	}

	item, err := c.service.UpdatePrice(ctxutil.Context(ctx), ctxutil.UserID(ctx), ctx.Param("id"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, item, "price updated")
}

// UpdateExpiry PUT /api/v1/ingredients/:id/expiry
func (c *Controller) UpdateExpiry(ctx *gin.Context) {
	var req ingredientapp.UpdateExpiryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters")
		return
	}

	item, err := c.service.UpdateExpiry(ctxutil.Context(ctx), ctxutil.UserID(ctx), ctx.Param("id"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, item, "expiry updated")
}

// Consume POST /api/v1/ingredients/:id/consume
func (c *Controller) Consume(ctx *gin.Context) {
	var req ingredientapp.ConsumeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters")
		return
	}

	item, err := c.service.ConsumeIngredient(ctxutil.Context(ctx), ctxutil.UserID(ctx), ctx.Param("id"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, item, "ingredient consumed")
}

// Delete DELETE /api/v1/ingredients/:id
func (c *Controller) Delete(ctx *gin.Context) {
	if err := c.service.DeleteIngredient(ctxutil.Context(ctx), ctxutil.UserID(ctx), ctx.Param("id")); err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleNoContent(ctx)
}
