package shopping

import (
	"github.com/gin-gonic/gin"

	"pantry/api/ctxutil"
	"pantry/api/response"
	shoppingapp "pantry/application/shopping"
	"pantry/pkg/sanitize"
)

type Controller struct {
	service *shoppingapp.ApplicationService
}

func NewController(service *shoppingapp.ApplicationService) *Controller {
	return &Controller{service: service}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/shopping-sessions")
	{
		g.POST("", c.Start)
		g.GET("/active", c.Active)
		g.GET("/history", c.History)
		g.GET("/:id", c.Get)
		g.POST("/:id/check", c.Check)
		g.POST("/:id/complete", c.Complete)
		g.POST("/:id/abandon", c.Abandon)
	}
}

type historyQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Start POST /api/v1/shopping-sessions
func (c *Controller) Start(ctx *gin.Context) {
	var req shoppingapp.StartSessionRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.HandleError(ctx, err, "invalid request parameters")
			return
		}
	}
	req.LocationName = sanitize.Text(req.LocationName)

	session, err := c.service.StartSession(ctxutil.Context(ctx), ctxutil.UserID(ctx), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleCreated(ctx, session, "shopping session started")
}

// Active GET /api/v1/shopping-sessions/active
func (c *Controller) Active(ctx *gin.Context) {
	session, err := c.service.GetActiveSession(ctxutil.Context(ctx), ctxutil.UserID(ctx))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, session, "active session retrieved")
}

// History GET /api/v1/shopping-sessions/history?limit=20
func (c *Controller) History(ctx *gin.Context) {
	var q historyQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.HandleError(ctx, err, "invalid query parameters")
		return
	}

	sessions, err := c.service.History(ctxutil.Context(ctx), ctxutil.UserID(ctx), q.Limit)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleList(ctx, sessions, "session history retrieved")
}

// Get GET /api/v1/shopping-sessions/:id
func (c *Controller) Get(ctx *gin.Context) {
	session, err := c.service.GetSession(ctxutil.Context(ctx), ctxutil.UserID(ctx), ctx.Param("id"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, session, "session retrieved")
}

// Check POST /api/v1/shopping-sessions/:id/check
func (c *Controller) Check(ctx *gin.Context) {
	var req shoppingapp.CheckIngredientRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters")
		return
	}

	session, err := c.service.CheckIngredient(ctxutil.Context(ctx), ctxutil.UserID(ctx), ctx.Param("id"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, session, "ingredient checked")
}

// Complete POST /api/v1/shopping-sessions/:id/complete
func (c *Controller) Complete(ctx *gin.Context) {
	session, err := c.service.CompleteSession(ctxutil.Context(ctx), ctxutil.UserID(ctx), ctx.Param("id"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, session, "shopping session completed")
}

// Abandon POST /api/v1/shopping-sessions/:id/abandon
// The body is optional; reason defaults in the service.
func (c *Controller) Abandon(ctx *gin.Context) {
	var req shoppingapp.AbandonSessionRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.HandleError(ctx, err, "invalid request parameters")
			return
		}
	}
	req.Reason = sanitize.Text(req.Reason)

	session, err := c.service.AbandonSession(ctxutil.Context(ctx), ctxutil.UserID(ctx), ctx.Param("id"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, session, "shopping session abandoned")
}
