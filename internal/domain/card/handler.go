package card

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

// ListCards godoc
// @Summary      List saved cards
// @Tags         Cards
// @Produce      json
// @Success      200  {array}   View
// @Failure      401  {object}  map[string]interface{}
// @Router       /payments/card [get]
func (h *Handler) ListCards(c *gin.Context) {
	cards, err := h.service.ListCards(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, cards)
}

// AddCard godoc
// @Summary      Save a card from a gateway token
// @Tags         Cards
// @Accept       json
// @Produce      json
// @Param        body  body      AddCardInput  true  "Gateway payment method token"
// @Success      201   {object}  View
// @Failure      400   {object}  map[string]interface{}
// @Failure      502   {object}  map[string]interface{}
// @Router       /payments/card [post]
func (h *Handler) AddCard(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Fail(c, apperror.ErrUnauthenticated)
		return
	}

	var req AddCardInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, err)
		return
	}

	view, err := h.service.AddCard(c.Request.Context(), userID, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, view)
}

// SetDefaultCard godoc
// @Summary      Make a saved card the default
// @Tags         Cards
// @Produce      json
// @Param        id   path      int  true  "Card ID"
// @Success      200  {object}  View
// @Failure      404  {object}  map[string]interface{}
// @Router       /payments/card/{id}/default [put]
func (h *Handler) SetDefaultCard(c *gin.Context) {
	id, ok := cardID(c)
	if !ok {
		return
	}

	view, err := h.service.SetDefaultCard(c.Request.Context(), c.GetInt64("user_id"), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// DeleteCard godoc
// @Summary      Delete a saved card
// @Tags         Cards
// @Produce      json
// @Param        id   path      int  true  "Card ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /payments/card/{id} [delete]
func (h *Handler) DeleteCard(c *gin.Context) {
	id, ok := cardID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteCard(c.Request.Context(), c.GetInt64("user_id"), id); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Card deleted successfully"})
}

func cardID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, apperror.New(apperror.ErrValidation, "invalid card id"))
		return 0, false
	}
	return id, true
}
