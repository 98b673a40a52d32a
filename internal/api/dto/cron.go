package dto

import "time"

// CollectionRunItem reports the outcome of one charge attempt of a run
type CollectionRunItem struct {
	OrderID       string `json:"order_id"`
	InstallmentID string `json:"installment_id"`
	Outcome       string `json:"outcome"`
	// ReceiptNumber is issued for successfully collected installments
	ReceiptNumber string `json:"receipt_number,omitempty"`
	Error         string `json:"error,omitempty"`
}

// CollectionRunResponse is the report of one collection run
type CollectionRunResponse struct {
	Items        []*CollectionRunItem `json:"items"`
	TotalSuccess int                  `json:"total_success"`
	TotalFailed  int                  `json:"total_failed"`
	StartAt      time.Time            `json:"start_at"`
}

// ReminderRunItem reports one upcoming-debit reminder of a run
type ReminderRunItem struct {
	OrderID       string    `json:"order_id"`
	InstallmentID string    `json:"installment_id"`
	DueDate       time.Time `json:"due_date"`
	Error         string    `json:"error,omitempty"`
}

// ReminderRunResponse is the report of one reminder run
type ReminderRunResponse struct {
	Items        []*ReminderRunItem `json:"items"`
	TotalSuccess int                `json:"total_success"`
	TotalFailed  int                `json:"total_failed"`
	StartAt      time.Time          `json:"start_at"`
}
