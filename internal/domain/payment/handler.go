package payment

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/response"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/validator"
)

const maxWebhookBody = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	validator.RegisterGin()
	return &Handler{service: service}
}

// CreateIntent godoc
// @Summary      Open a payment intent
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        body  body      IntentInput  true  "Amount, currency and optional listing"
// @Success      200   {object}  IntentResult
// @Failure      400   {object}  map[string]interface{}
// @Failure      403   {object}  map[string]interface{}
// @Failure      502   {object}  map[string]interface{}
// @Router       /payments/create-intent [post]
func (h *Handler) CreateIntent(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Fail(c, apperror.ErrUnauthenticated)
		return
	}

	var req IntentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, err)
		return
	}
	req.IdempotencyKey = strings.TrimSpace(c.GetHeader("Idempotency-Key"))

	res, err := h.service.IssueIntent(c.Request.Context(), userID, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// ConfirmPayment godoc
// @Summary      Confirm a paid intent and record it
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        body  body      ConfirmInput  true  "Intent, listing and optional booking data"
// @Success      201   {object}  ConfirmResult
// @Failure      400   {object}  map[string]interface{}
// @Failure      409   {object}  map[string]interface{}
// @Router       /payments/confirm [post]
func (h *Handler) ConfirmPayment(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Fail(c, apperror.ErrUnauthenticated)
		return
	}

	var req ConfirmInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, err)
		return
	}

	res, err := h.service.ConfirmPayment(c.Request.Context(), userID, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

// Webhook godoc
// @Summary      Gateway webhook receiver
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header  string  true  "Gateway signature"
// @Success      200  {object}  WebhookAck
// @Failure      400  {object}  map[string]interface{}
// @Router       /payments/webhook [post]
func (h *Handler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := c.GetRawData()
	if err != nil {
		response.Fail(c, apperror.Wrap(apperror.ErrValidation, "unreadable body", err))
		return
	}

	ack, err := h.service.IngestWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ack)
}

// ListPayments godoc
// @Summary      List payments (staff)
// @Tags         Payments
// @Produce      json
// @Param        status          query  string  false  "Payment status"
// @Param        user_id         query  int     false  "Owner"
// @Param        payment_method  query  string  false  "Method"
// @Param        type            query  string  false  "sale or rental"
// @Success      200  {object}  Page
// @Router       /payments [get]
func (h *Handler) ListPayments(c *gin.Context) {
	f := filterFromQuery(c)
	f.UserID, _ = strconv.ParseInt(c.Query("user_id"), 10, 64)
	f.TransactionType = TransactionType(c.Query("type"))

	page, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, page)
}

// GetPayment godoc
// @Summary      Get a payment
// @Tags         Payments
// @Produce      json
// @Param        id  path  int  true  "Payment ID"
// @Success      200  {object}  Payment
// @Router       /payments/{id} [get]
func (h *Handler) GetPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), c.GetInt64("user_id"), c.GetString("role"), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

// Cleanup godoc
// @Summary      Reconcile stale pending payments now (staff)
// @Tags         Payments
// @Produce      json
// @Success      200  {object}  ReconcileReport
// @Router       /payments/cleanup [post]
func (h *Handler) Cleanup(c *gin.Context) {
	report, err := h.service.ReconcileStale(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// ListSales godoc
// @Summary      List sale payments (staff)
// @Tags         Sales
// @Produce      json
// @Success      200  {object}  Page
// @Router       /sales [get]
func (h *Handler) ListSales(c *gin.Context) {
	f := filterFromQuery(c)
	f.UserID, _ = strconv.ParseInt(c.Query("user_id"), 10, 64)
	f.TransactionType = TransactionSale

	page, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, page)
}

// ListUserSales godoc
// @Summary      List a user's sale payments
// @Tags         Sales
// @Produce      json
// @Param        userId  path  int  true  "User ID"
// @Success      200  {object}  Page
// @Router       /sales/user/{userId} [get]
func (h *Handler) ListUserSales(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	page, err := h.service.ListSales(c.Request.Context(), c.GetInt64("user_id"), c.GetString("role"), userID, filterFromQuery(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, page)
}

// GetSale godoc
// @Summary      Get a sale payment
// @Tags         Sales
// @Produce      json
// @Param        id  path  int  true  "Payment ID"
// @Success      200  {object}  Payment
// @Failure      404  {object}  map[string]interface{}
// @Router       /sales/{id} [get]
func (h *Handler) GetSale(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetSale(c.Request.Context(), c.GetInt64("user_id"), c.GetString("role"), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

type updateSaleStatusRequest struct {
	Status Status `json:"status" binding:"required"`
}

// UpdateSaleStatus godoc
// @Summary      Change a sale payment's status (staff)
// @Tags         Sales
// @Accept       json
// @Produce      json
// @Param        id    path  int                      true  "Payment ID"
// @Param        body  body  updateSaleStatusRequest  true  "New status"
// @Success      200  {object}  Payment
// @Failure      400  {object}  map[string]interface{}
// @Router       /sales/{id}/status [put]
func (h *Handler) UpdateSaleStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateSaleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, err)
		return
	}

	p, err := h.service.UpdateSaleStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

func filterFromQuery(c *gin.Context) ListFilter {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return ListFilter{
		Status: Status(c.Query("status")),
		Method: Method(c.Query("payment_method")),
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
