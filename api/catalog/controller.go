package catalog

import (
	"github.com/gin-gonic/gin"

	"pantry/api/ctxutil"
	"pantry/api/response"
	catalogapp "pantry/application/catalog"
)

type Controller struct {
	service *catalogapp.ApplicationService
}

func NewController(service *catalogapp.ApplicationService) *Controller {
	return &Controller{service: service}
}

// RegisterRoutes reference data needs no user.
func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/categories", c.ListCategories)
	router.GET("/units", c.ListUnits)
}

// ListCategories GET /api/v1/categories
func (c *Controller) ListCategories(ctx *gin.Context) {
	items, err := c.service.ListCategories(ctxutil.Context(ctx))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleList(ctx, items, "categories retrieved")
}

// ListUnits GET /api/v1/units
func (c *Controller) ListUnits(ctx *gin.Context) {
	items, err := c.service.ListUnits(ctxutil.Context(ctx))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleList(ctx, items, "units retrieved")
}
