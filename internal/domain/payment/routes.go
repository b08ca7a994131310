package payment

import "github.com/gin-gonic/gin"

// RegisterWebhookRoutes mounts the unauthenticated gateway callback.
func (h *Handler) RegisterWebhookRoutes(r *gin.RouterGroup) {
	r.POST("/payments/webhook", h.Webhook)
}

func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("/create-intent", h.CreateIntent)
		payments.POST("/confirm", h.ConfirmPayment)
		payments.GET("/:id", h.GetPayment)
	}
	r.GET("/sales/user/:userId", h.ListUserSales)
	r.GET("/sales/:id", h.GetSale)
}

// RegisterStaffRoutes mounts the back-office endpoints. The caller attaches
// the role guard to r.
func (h *Handler) RegisterStaffRoutes(r *gin.RouterGroup) {
	r.GET("/payments", h.ListPayments)
	r.POST("/payments/cleanup", h.Cleanup)
	r.GET("/sales", h.ListSales)
	r.PUT("/sales/:id/status", h.UpdateSaleStatus)
}
