package cron

import (
	"net/http"

	"github.com/coursebill/coursebill/internal/logger"
	"github.com/coursebill/coursebill/internal/service"
	"github.com/gin-gonic/gin"
)

// PaymentHandler handles payment related cron jobs
type PaymentHandler struct {
	collectionService service.CollectionService
	reminderService   service.ReminderService
	logger            *logger.Logger
}

// NewPaymentHandler creates a new payment cron handler
func NewPaymentHandler(
	collectionService service.CollectionService,
	reminderService service.ReminderService,
	logger *logger.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		collectionService: collectionService,
		reminderService:   reminderService,
		logger:            logger,
	}
}

// ProcessDueInstallments charges every due pending installment. Scheduled
// daily; safe to trigger more often.
func (h *PaymentHandler) ProcessDueInstallments(c *gin.Context) {
	response, err := h.collectionService.ProcessDueInstallments(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to process due installments",
			"error", err)

		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// SendPaymentReminders announces upcoming installment debits to buyers
func (h *PaymentHandler) SendPaymentReminders(c *gin.Context) {
	response, err := h.reminderService.SendPaymentReminders(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to send payment reminders",
			"error", err)

		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}
