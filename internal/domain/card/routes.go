package card

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	cards := r.Group("/payments/card")
	{
		cards.GET("", h.ListCards)
		cards.POST("", h.AddCard)
		cards.PUT("/:id/default", h.SetDefaultCard)
		cards.DELETE("/:id", h.DeleteCard)
	}
}
