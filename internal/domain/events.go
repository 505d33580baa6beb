package domain

import "time"

// StageEvent announces that an order moved between statuses.
type StageEvent struct {
	OrderID      string       `json:"orderId"`
	UserID       string       `json:"userId"`
	VisaCategory VisaCategory `json:"visaCategory"`
	From         OrderStatus  `json:"from"`
	To           OrderStatus  `json:"to"`
	Version      int64        `json:"version"`
	OccurredAt   time.Time    `json:"occurredAt"`
}

func NewStageEvent(o *Order, from OrderStatus) StageEvent {
	return StageEvent{
		OrderID:      o.ID,
		UserID:       o.UserID,
		VisaCategory: o.VisaCategory,
		From:         from,
		To:           o.Status,
		Version:      o.Version,
		OccurredAt:   o.UpdatedAt,
	}
}
