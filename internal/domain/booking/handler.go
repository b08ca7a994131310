package booking

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type updateStatusRequest struct {
	Status Status `json:"status" binding:"required"`
	Reason string `json:"reason" binding:"max=100"`
}

// ListBookings godoc
// @Summary      List all bookings (staff)
// @Tags         Bookings
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Param        post_id query  int     false  "Filter by listing"
// @Param        limit   query  int     false  "Page size"
// @Param        offset  query  int     false  "Offset"
// @Success      200  {object}  Page
// @Router       /bookings [get]
func (h *Handler) ListBookings(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, page)
}

// ListUserBookings godoc
// @Summary      List a user's bookings
// @Tags         Bookings
// @Produce      json
// @Param        userId  path  int  true  "User ID"
// @Success      200  {object}  Page
// @Router       /bookings/user/{userId} [get]
func (h *Handler) ListUserBookings(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	page, err := h.service.ListForUser(c.Request.Context(), c.GetInt64("user_id"), c.GetString("role"), userID, filterFromQuery(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, page)
}

// GetBooking godoc
// @Summary      Get a booking
// @Tags         Bookings
// @Produce      json
// @Param        id  path  int  true  "Booking ID"
// @Success      200  {object}  Booking
// @Router       /bookings/{id} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.Get(c.Request.Context(), c.GetInt64("user_id"), c.GetString("role"), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// UpdateBookingStatus godoc
// @Summary      Change a booking's status (staff)
// @Tags         Bookings
// @Accept       json
// @Produce      json
// @Param        id    path  int                  true  "Booking ID"
// @Param        body  body  updateStatusRequest  true  "New status"
// @Success      200  {object}  Booking
// @Router       /bookings/{id}/status [put]
func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, err)
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status, req.Reason)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

func filterFromQuery(c *gin.Context) ListFilter {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	postID, _ := strconv.ParseInt(c.Query("post_id"), 10, 64)
	return ListFilter{
		PostID: postID,
		Status: Status(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, apperror.New(apperror.ErrValidation, "invalid "+name))
		return 0, false
	}
	return id, true
}
