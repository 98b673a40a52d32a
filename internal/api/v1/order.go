package v1

import (
	"net/http"
	"time"

	"github.com/coursebill/coursebill/internal/api/dto"
	ierr "github.com/coursebill/coursebill/internal/errors"
	"github.com/coursebill/coursebill/internal/logger"
	"github.com/coursebill/coursebill/internal/service"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service service.OrderService
	log     *logger.Logger
}

func NewOrderHandler(
	service service.OrderService,
	log *logger.Logger,
) *OrderHandler {
	return &OrderHandler{
		service: service,
		log:     log,
	}
}

// @Summary Create a new order
// @Description Create a single or batch order for a course
// @Tags Orders
// @Accept json
// @Produce json
// @Param order body dto.CreateOrderRequest true "Order configuration"
// @Success 201 {object} dto.OrderResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateOrder(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get an order
// @Description Get an order with its payment schedule
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	resp, err := h.service.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Assign the delivering organization
// @Description Bind the organization delivering the training to the order
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param assignment body dto.AssignOrganizationRequest true "Organization assignment"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /orders/{id}/assign [post]
func (h *OrderHandler) AssignOrganization(c *gin.Context) {
	var req dto.AssignOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.AssignOrganization(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Submit a contract for signature
// @Description Record that the training contract was submitted to the buyer
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param contract body dto.SubmitContractRequest true "Contract reference"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /orders/{id}/contract [post]
func (h *OrderHandler) SubmitContract(c *gin.Context) {
	var req dto.SubmitContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.SubmitContract(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Mark the contract signed
// @Description Record the buyer signature and build the payment schedule
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /orders/{id}/contract/sign [post]
func (h *OrderHandler) MarkContractSigned(c *gin.Context) {
	resp, err := h.service.MarkContractSigned(c.Request.Context(), c.Param("id"), time.Now().UTC())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Attach a payment method
// @Description Bind a stored payment method token to the order
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param method body dto.AttachPaymentMethodRequest true "Payment method token"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /orders/{id}/payment-method [post]
func (h *OrderHandler) AttachPaymentMethod(c *gin.Context) {
	var req dto.AttachPaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.AttachPaymentMethod(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Retry a failed payment
// @Description Supply a usable payment method and reopen refused installments
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param method body dto.AttachPaymentMethodRequest true "Payment method token"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /orders/{id}/retry-payment [post]
func (h *OrderHandler) RetryPayment(c *gin.Context) {
	var req dto.AttachPaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.RetryPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Cancel an order
// @Description Cancel the order and freeze its installment ledger
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	resp, err := h.service.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
