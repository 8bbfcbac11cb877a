package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nusantara-Apps/rutina/internal/http/middleware"
	"github.com/Nusantara-Apps/rutina/internal/model"
)

// APIError is the transport error taxonomy: handlers return the HTTP code
// and a message, and the resolver turns it into JSON {"message": ...}.
type APIError struct {
	Code    int
	Message string
}

type HandlerFuncWithAuth func(ctx *gin.Context, user *model.User) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := middleware.GetCurrentUser(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
			return
		}

		result, apiError := h(ctx, user)
		if apiError != nil {
			ctx.JSON(apiError.Code, gin.H{"message": apiError.Message})
			return
		}

		// handlers that need a non-200 success code write the response themselves
		if result == nil && ctx.Writer.Written() {
			return
		}
		ctx.JSON(http.StatusOK, result)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiError := h(ctx)
		if apiError != nil {
			ctx.JSON(apiError.Code, gin.H{"message": apiError.Message})
			return
		}

		if result == nil && ctx.Writer.Written() {
			return
		}
		ctx.JSON(http.StatusOK, result)
	}
}

// Controller is the surface Modules mount endpoints onto; verbs resolve
// through the auth-aware adapter, PUBLIC_* through the bare one.
type Controller struct {
	Group *gin.RouterGroup
}

func (c *Controller) GET(path string, h HandlerFuncWithAuth) {
	c.Group.GET(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) POST(path string, h HandlerFuncWithAuth) {
	c.Group.POST(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) PUT(path string, h HandlerFuncWithAuth) {
	c.Group.PUT(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) PATCH(path string, h HandlerFuncWithAuth) {
	c.Group.PATCH(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) DELETE(path string, h HandlerFuncWithAuth) {
	c.Group.DELETE(path, ResolveEndpointWithAuth(h))
}

func (c *Controller) PUBLIC_GET(path string, h HandlerFunc) {
	c.Group.GET(path, ResolveEndpoint(h))
}

func (c *Controller) PUBLIC_POST(path string, h HandlerFunc) {
	c.Group.POST(path, ResolveEndpoint(h))
}
