package gallery

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	images := protected.Group("/images")
	{
		images.POST("", h.Create)
		images.GET("", h.List)
		images.GET("/:id", h.Get)
		images.PUT("/:id", h.Update)
		images.DELETE("/:id", h.Delete)
	}
}
