package booking

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the renter-facing booking views on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	{
		bookings.GET("/user/:userId", h.ListUserBookings)
		bookings.GET("/:id", h.GetBooking)
	}
}

// RegisterStaffRoutes mounts the back-office endpoints. The caller attaches
// the role guard to rg.
func (h *Handler) RegisterStaffRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	{
		bookings.GET("", h.ListBookings)
		bookings.PUT("/:id/status", h.UpdateBookingStatus)
	}
}
